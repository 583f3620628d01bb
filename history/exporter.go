package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gobeaver/streamurl/filekit"
	"github.com/gobeaver/streamurl/metrics"
	"github.com/gobeaver/streamurl/streamurl"
)

const exportTimeLayout = "20060102T150405Z"

// Snapshot is the document written by Export.
type Snapshot struct {
	Direction  streamurl.Direction `json:"direction"`
	ExportedAt time.Time           `json:"exportedAt"`
	Config     *streamurl.Config   `json:"config,omitempty"`
	Records    []Record            `json:"records"`
}

// Exporter writes history snapshots to a file store and reads them back.
type Exporter struct {
	repo    Repository
	fs      filekit.FileSystem
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewExporter creates an Exporter; m may be nil.
func NewExporter(repo Repository, fs filekit.FileSystem, m *metrics.Metrics) *Exporter {
	return &Exporter{repo: repo, fs: fs, metrics: m, now: time.Now}
}

// Export writes the direction's history and last configuration to
// <direction>/history-<UTC timestamp>.json and returns that path.
func (e *Exporter) Export(ctx context.Context, dir streamurl.Direction) (string, error) {
	if err := checkDirection(dir); err != nil {
		return "", err
	}
	records, err := e.repo.List(ctx, dir)
	if err != nil {
		return "", err
	}
	snap := Snapshot{Direction: dir, ExportedAt: e.now().UTC(), Records: records}
	if cfg, err := e.repo.LastConfig(ctx, dir); err == nil {
		snap.Config = cfg
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	name := path.Join(string(dir), "history-"+snap.ExportedAt.Format(exportTimeLayout)+".json")
	if err := e.fs.Upload(ctx, name, bytes.NewReader(data), filekit.WithContentType("application/json")); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	e.metrics.HistoryOp(string(dir), metrics.OpExport)
	return name, nil
}

// Exports lists earlier exports of the direction, oldest first.
func (e *Exporter) Exports(ctx context.Context, dir streamurl.Direction) ([]filekit.File, error) {
	if err := checkDirection(dir); err != nil {
		return nil, err
	}
	files, err := e.fs.List(ctx, string(dir))
	if err != nil {
		return nil, err
	}
	out := files[:0]
	for _, f := range files {
		if strings.HasPrefix(f.Name, "history-") && strings.HasSuffix(f.Name, ".json") {
			out = append(out, f)
		}
	}
	return out, nil
}

// Load reads a snapshot by the name returned from Export or Exports.
func (e *Exporter) Load(ctx context.Context, dir streamurl.Direction, name string) (*Snapshot, error) {
	if err := checkDirection(dir); err != nil {
		return nil, err
	}
	rc, err := e.fs.Download(ctx, path.Join(string(dir), path.Base(name)))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode export %s: %w", name, err)
	}
	if snap.Direction != dir {
		return nil, fmt.Errorf("%w: export %s holds %s history", streamurl.ErrUnknownDirection, name, snap.Direction)
	}
	return &snap, nil
}

// Restore re-adds the records of a snapshot, keeping their IDs and
// timestamps, and returns how many were written.
func (e *Exporter) Restore(ctx context.Context, dir streamurl.Direction, name string) (int, error) {
	snap, err := e.Load(ctx, dir, name)
	if err != nil {
		return 0, err
	}
	// Oldest first so trimming keeps the newest.
	for i := len(snap.Records) - 1; i >= 0; i-- {
		rec := snap.Records[i]
		rec.Direction = dir
		if err := e.repo.Add(ctx, rec); err != nil {
			return len(snap.Records) - 1 - i, err
		}
	}
	e.metrics.HistoryOp(string(dir), metrics.OpRestore)
	return len(snap.Records), nil
}
