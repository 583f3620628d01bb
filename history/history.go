// Package history persists the last configuration used per direction and
// the list of generated URL sets, so the form can be refilled and earlier
// URLs copied again.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/gobeaver/streamurl/streamurl"
)

// MaxRecords is the number of history records kept per direction; older
// ones are dropped on insert.
const MaxRecords = 100

var (
	ErrNotFound = errors.New("history: not found")
	ErrSealed   = errors.New("history: stored secret is sealed and no sealer is configured")
)

// Record is one generation: the configuration and the URLs it produced.
type Record struct {
	ID        string              `json:"id"`
	Direction streamurl.Direction `json:"direction"`
	Config    streamurl.Config    `json:"config"`
	URLs      streamurl.URLSet    `json:"generatedUrls"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Inputs are the distinct values seen in a direction's history, most
// recently used first, for form autocompletion.
type Inputs struct {
	Domains     []string `json:"domains"`
	AppNames    []string `json:"appNames"`
	StreamNames []string `json:"streamNames"`
	Keys        []string `json:"keys"`
}

// Repository stores configurations and history, scoped by direction.
// List returns records newest first. LastConfig, Get and Delete return
// ErrNotFound when nothing matches.
type Repository interface {
	SaveConfig(ctx context.Context, dir streamurl.Direction, cfg streamurl.Config) error
	LastConfig(ctx context.Context, dir streamurl.Direction) (*streamurl.Config, error)

	Add(ctx context.Context, rec Record) error
	List(ctx context.Context, dir streamurl.Direction) ([]Record, error)
	Get(ctx context.Context, dir streamurl.Direction, id string) (*Record, error)
	Delete(ctx context.Context, dir streamurl.Direction, id string) error
	Clear(ctx context.Context, dir streamurl.Direction) error
	Inputs(ctx context.Context, dir streamurl.Direction) (*Inputs, error)
}

// CollectInputs gathers distinct non-empty values from records, which
// must already be ordered newest first.
func CollectInputs(records []Record) *Inputs {
	in := &Inputs{Domains: []string{}, AppNames: []string{}, StreamNames: []string{}, Keys: []string{}}
	seen := map[*[]string]map[string]bool{
		&in.Domains: {}, &in.AppNames: {}, &in.StreamNames: {}, &in.Keys: {},
	}
	add := func(dst *[]string, v string) {
		if v == "" || seen[dst][v] {
			return
		}
		seen[dst][v] = true
		*dst = append(*dst, v)
	}

	for _, r := range records {
		add(&in.Domains, r.Config.Domain)
		add(&in.AppNames, r.Config.AppName)
		add(&in.StreamNames, r.Config.StreamName)
		add(&in.Keys, r.Config.SecretKey)
	}
	return in
}
