package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gobeaver/streamurl/streamurl"
)

// savedConfig holds the last configuration submitted per direction.
type savedConfig struct {
	Direction string    `gorm:"primaryKey;size:16"`
	Payload   string    `gorm:"type:text;not null"`
	SavedAt   time.Time `gorm:"not null"`
}

func (savedConfig) TableName() string { return "saved_configs" }

type historyRecord struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Direction   string    `gorm:"size:16;not null;index:idx_history_direction_generated,priority:1"`
	Domain      string    `gorm:"size:255;not null"`
	AppName     string    `gorm:"size:255;not null"`
	StreamName  string    `gorm:"size:255;not null"`
	SecretKey   string    `gorm:"type:text"`
	ExpireAt    string    `gorm:"size:19"`
	Algorithm   string    `gorm:"size:8"`
	URLs        string    `gorm:"column:urls;type:text;not null"`
	GeneratedAt time.Time `gorm:"not null;index:idx_history_direction_generated,priority:2"`
}

func (historyRecord) TableName() string { return "history_records" }

// Store is the GORM-backed Repository.
type Store struct {
	db     *gorm.DB
	sealer Sealer
	now    func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSealer encrypts secret keys at rest.
func WithSealer(s Sealer) StoreOption {
	return func(st *Store) { st.sealer = s }
}

// WithStoreClock sets the clock used for records added without a timestamp.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(st *Store) {
		if now != nil {
			st.now = now
		}
	}
}

// NewStore wraps db. Call Migrate before first use.
func NewStore(db *gorm.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the history tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&savedConfig{}, &historyRecord{}); err != nil {
		return fmt.Errorf("migrate history tables: %w", err)
	}
	return nil
}

func checkDirection(dir streamurl.Direction) error {
	if streamurl.Protocols(dir) == nil {
		return fmt.Errorf("%w: %q", streamurl.ErrUnknownDirection, dir)
	}
	return nil
}

func (s *Store) SaveConfig(ctx context.Context, dir streamurl.Direction, cfg streamurl.Config) error {
	if err := checkDirection(dir); err != nil {
		return err
	}
	key, err := sealSecret(s.sealer, cfg.SecretKey)
	if err != nil {
		return err
	}
	cfg.SecretKey = key

	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	row := savedConfig{Direction: string(dir), Payload: string(payload), SavedAt: s.now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save %s config: %w", dir, err)
	}
	return nil
}

func (s *Store) LastConfig(ctx context.Context, dir streamurl.Direction) (*streamurl.Config, error) {
	var row savedConfig
	err := s.db.WithContext(ctx).Where("direction = ?", string(dir)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s config: %w", dir, err)
	}

	var cfg streamurl.Config
	if err := json.Unmarshal([]byte(row.Payload), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", dir, err)
	}
	if cfg.SecretKey, err = openSecret(s.sealer, cfg.SecretKey); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Add inserts rec, replacing a record with the same ID, and drops the
// oldest records of the direction beyond MaxRecords. A missing ID or
// timestamp is filled in; the stored values are written back to rec's copy
// only.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if err := checkDirection(rec.Direction); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	row, err := s.toRow(rec)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
			return fmt.Errorf("insert history record: %w", err)
		}

		var ids []string
		err := tx.Model(&historyRecord{}).
			Where("direction = ?", row.Direction).
			Order("generated_at DESC").Order("id DESC").
			Pluck("id", &ids).Error
		if err != nil {
			return fmt.Errorf("list history ids: %w", err)
		}
		if len(ids) <= MaxRecords {
			return nil
		}
		if err := tx.Where("id IN ?", ids[MaxRecords:]).Delete(&historyRecord{}).Error; err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

func (s *Store) List(ctx context.Context, dir streamurl.Direction) ([]Record, error) {
	var rows []historyRecord
	err := s.db.WithContext(ctx).
		Where("direction = ?", string(dir)).
		Order("generated_at DESC").Order("id DESC").
		Limit(MaxRecords).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s history: %w", dir, err)
	}

	out := make([]Record, 0, len(rows))
	for i := range rows {
		rec, err := s.fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, dir streamurl.Direction, id string) (*Record, error) {
	var row historyRecord
	err := s.db.WithContext(ctx).
		Where("direction = ? AND id = ?", string(dir), id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history record %s: %w", id, err)
	}
	return s.fromRow(&row)
}

func (s *Store) Delete(ctx context.Context, dir streamurl.Direction, id string) error {
	res := s.db.WithContext(ctx).
		Where("direction = ? AND id = ?", string(dir), id).
		Delete(&historyRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete history record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, dir streamurl.Direction) error {
	err := s.db.WithContext(ctx).
		Where("direction = ?", string(dir)).
		Delete(&historyRecord{}).Error
	if err != nil {
		return fmt.Errorf("clear %s history: %w", dir, err)
	}
	return nil
}

func (s *Store) Inputs(ctx context.Context, dir streamurl.Direction) (*Inputs, error) {
	records, err := s.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	return CollectInputs(records), nil
}

func (s *Store) toRow(rec Record) (*historyRecord, error) {
	urls, err := json.Marshal(rec.URLs)
	if err != nil {
		return nil, fmt.Errorf("encode urls: %w", err)
	}
	key, err := sealSecret(s.sealer, rec.Config.SecretKey)
	if err != nil {
		return nil, err
	}
	return &historyRecord{
		ID:          rec.ID,
		Direction:   string(rec.Direction),
		Domain:      rec.Config.Domain,
		AppName:     rec.Config.AppName,
		StreamName:  rec.Config.StreamName,
		SecretKey:   key,
		ExpireAt:    rec.Config.ExpireAt,
		Algorithm:   string(rec.Config.Algorithm),
		URLs:        string(urls),
		GeneratedAt: rec.CreatedAt.UTC(),
	}, nil
}

func (s *Store) fromRow(row *historyRecord) (*Record, error) {
	var urls streamurl.URLSet
	if err := json.Unmarshal([]byte(row.URLs), &urls); err != nil {
		return nil, fmt.Errorf("decode urls of %s: %w", row.ID, err)
	}
	key, err := openSecret(s.sealer, row.SecretKey)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:        row.ID,
		Direction: streamurl.Direction(row.Direction),
		Config: streamurl.Config{
			Domain:     row.Domain,
			AppName:    row.AppName,
			StreamName: row.StreamName,
			SecretKey:  key,
			ExpireAt:   row.ExpireAt,
			Algorithm:  streamurl.Algorithm(row.Algorithm),
		},
		URLs:      urls,
		CreatedAt: row.GeneratedAt.UTC(),
	}, nil
}
