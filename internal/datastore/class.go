package datastore

import (
	"context"
	"time"

	"calistenia/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableClass(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.ScheduledClass)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.ScheduledClass)(nil)).Index("index_classes_scheduled_at").IfNotExists().Column("scheduled_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateClass(ctx context.Context, db *bun.DB, class *models.ScheduledClass) (*models.ScheduledClass, error) {
	_, err := db.NewInsert().Model(class).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return class, nil
}

func ListUpcomingClasses(ctx context.Context, db *bun.DB, now time.Time) ([]*models.ScheduledClass, error) {
	var classes []*models.ScheduledClass
	err := db.NewSelect().Model(&classes).
		Where("scheduled_at >= ?", now).
		Order("scheduled_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return classes, nil
}

// DeleteExpiredClasses drops every class whose instant has passed and
// returns how many were removed.
func DeleteExpiredClasses(ctx context.Context, db *bun.DB, now time.Time) (int64, error) {
	res, err := db.NewDelete().Model((*models.ScheduledClass)(nil)).
		Where("scheduled_at < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
