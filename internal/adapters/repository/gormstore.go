package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matteohorvath/ksis/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the relational Store backed by gorm and sqlite.
type GormStore struct {
	db  *gorm.DB
	log logger.Logger
}

var _ Store = (*GormStore)(nil)

func buildDSN(path string, o gormOptions) string {
	var params []string
	if o.useWAL {
		params = append(params, "_journal_mode=WAL", "_synchronous=NORMAL")
	}
	params = append(params, fmt.Sprintf("_busy_timeout=%d", o.busyTimeout.Milliseconds()))
	return path + "?" + strings.Join(params, "&")
}

// OpenSQLite opens (or creates) the sqlite database at path and migrates the schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*GormStore, error) {
	o := gormOptions{
		slowThreshold: 200 * time.Millisecond,
		busyTimeout:   time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Named("store")
	}

	o.log.Info(ctx, "opening db", logger.String("path", path))
	db, err := gorm.Open(sqlite.Open(buildDSN(path, o)), &gorm.Config{
		Logger: newSQLLogger(o.log, o),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrStoreUnavailable, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrStoreUnavailable, err)
	}
	// One connection: sqlite has a single writer, and ":memory:" is per connection.
	sqlDB.SetMaxOpenConns(1)

	s := &GormStore{db: db, log: o.log}
	o.log.Info(ctx, "migrating db")
	if err := db.WithContext(ctx).AutoMigrate(models()...); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: migrate db: %w", ErrStoreUnavailable, err)
	}
	o.log.Info(ctx, "db opened")
	return s, nil
}

// Close closes the underlying database.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get underlying db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func newModel(kind Kind) (any, error) {
	f, ok := modelFactories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return f(), nil
}

// Upsert runs INSERT ... ON CONFLICT on the key columns and reads back the id
// in the same transaction.
func (s *GormStore) Upsert(ctx context.Context, key Key, create, update Fields) (Handle, error) {
	if len(key.Fields) == 0 {
		return 0, ErrEmptyKey
	}
	model, err := newModel(key.Kind)
	if err != nil {
		return 0, err
	}

	row := make(map[string]any, len(key.Fields)+len(create)+len(update))
	for c, v := range create {
		row[c] = v
	}
	for c, v := range update {
		row[c] = v
	}
	for c, v := range key.Fields {
		row[c] = v
	}

	conflict := clause.OnConflict{}
	for _, c := range key.Columns() {
		conflict.Columns = append(conflict.Columns, clause.Column{Name: c})
	}
	if len(update) == 0 {
		conflict.DoNothing = true
	} else {
		conflict.DoUpdates = clause.AssignmentColumns(sortedColumns(update))
	}

	var h Handle
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(model).Clauses(conflict).Create(row).Error; err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
		var ids []int64
		if err := tx.Model(model).Where(map[string]any(key.Fields)).Limit(1).Pluck(ColID, &ids).Error; err != nil {
			return fmt.Errorf("read back %s: %w", key, err)
		}
		if len(ids) == 0 {
			return fmt.Errorf("%w: %s after upsert", ErrNotFound, key)
		}
		h = Handle(ids[0])
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}
	return h, nil
}

// Find returns the handle of the row with key.
func (s *GormStore) Find(ctx context.Context, key Key) (Handle, error) {
	if len(key.Fields) == 0 {
		return 0, ErrEmptyKey
	}
	model, err := newModel(key.Kind)
	if err != nil {
		return 0, err
	}
	var ids []int64
	err = s.db.WithContext(ctx).Model(model).Where(map[string]any(key.Fields)).Limit(1).Pluck(ColID, &ids).Error
	if err != nil {
		return 0, storeErr(fmt.Errorf("find %s: %w", key, err))
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return Handle(ids[0]), nil
}

// FindUnique returns the single row matching key.
func (s *GormStore) FindUnique(ctx context.Context, key Key) (Record, error) {
	if len(key.Fields) == 0 {
		return Record{}, ErrEmptyKey
	}
	rows, err := s.list(ctx, key.Kind, key.Fields, 2)
	if err != nil {
		return Record{}, err
	}
	switch len(rows) {
	case 0:
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	case 1:
		return rows[0], nil
	default:
		return Record{}, fmt.Errorf("%w: %s", ErrNotUnique, key)
	}
}

// List returns rows of kind matching where, ordered by id.
func (s *GormStore) List(ctx context.Context, kind Kind, where Fields) ([]Record, error) {
	return s.list(ctx, kind, where, 0)
}

func (s *GormStore) list(ctx context.Context, kind Kind, where Fields, limit int) ([]Record, error) {
	model, err := newModel(kind)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(model).Order(ColID)
	if len(where) > 0 {
		q = q.Where(map[string]any(where))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []map[string]any
	if err := q.Find(&rows).Error; err != nil {
		return nil, storeErr(fmt.Errorf("list %s: %w", kind, err))
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{Kind: kind, Fields: Fields(r)}
		if id, ok := rec.Int64(ColID); ok {
			rec.Handle = Handle(id)
		}
		out = append(out, rec)
	}
	return out, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
