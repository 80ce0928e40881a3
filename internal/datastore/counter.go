package datastore

import (
	"context"
	"database/sql"
	"errors"

	"calistenia/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableCounter(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Counter)(nil)).IfNotExists().Exec(ctx)
	return err
}

// NextCounterValue increments the named counter and returns the new value
// in one statement. Creates the counter at 1 on first use.
func NextCounterValue(ctx context.Context, db *bun.DB, name string) (int64, error) {
	var value int64
	err := db.NewRaw(`
		INSERT INTO counters AS c (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = c.value + 1
		RETURNING value`, name).Scan(ctx, &value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// SeedCounter installs a starting value without touching an existing
// counter. Used once to carry over historical champion numbers.
func SeedCounter(ctx context.Context, db *bun.DB, name string, value int64) error {
	_, err := db.NewInsert().
		Model(&models.Counter{Name: name, Value: value}).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	return err
}

// GetCounter returns nil when the counter does not exist yet.
func GetCounter(ctx context.Context, db *bun.DB, name string) (*models.Counter, error) {
	var counter models.Counter
	err := db.NewSelect().Model(&counter).Where("name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &counter, nil
}
