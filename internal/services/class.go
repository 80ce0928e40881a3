package services

import (
	"context"
	"fmt"
	"time"

	"calistenia/internal/datastore"
	"calistenia/internal/interfaces"
	"calistenia/internal/models"
	apperrors "calistenia/pkg/errors"
	"calistenia/pkg/logger"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceClass manages the scheduled group classes: admin scheduling,
// listings, expiry and the hourly reminder sweep.
type ServiceClass struct {
	container  *do.Injector
	postgresDB *bun.DB
	gateway    interfaces.Gateway
}

func NewServiceClass(container *do.Injector) (*ServiceClass, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}
	gateway, err := do.Invoke[interfaces.Gateway](container)
	if err != nil {
		return nil, err
	}

	return &ServiceClass{
		container:  container,
		postgresDB: postgresDB,
		gateway:    gateway,
	}, nil
}

// Schedule stores a class. Times are interpreted as UTC and must be in
// the future.
func (s *ServiceClass) Schedule(ctx context.Context, category string, at time.Time) (*models.ScheduledClass, error) {
	if category != models.ClassCategoryFree && category != models.ClassCategoryPremium {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "unknown class category: "+category, nil)
	}
	if !at.After(time.Now().UTC()) {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "class must be scheduled in the future", nil)
	}
	class, err := datastore.CreateClass(ctx, s.postgresDB, &models.ScheduledClass{
		Category:    category,
		ScheduledAt: at.UTC(),
	})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrDatabase, "create class", err)
	}
	return class, nil
}

// Upcoming lists the classes still ahead of now, soonest first.
func (s *ServiceClass) Upcoming(ctx context.Context) ([]*models.ScheduledClass, error) {
	classes, err := datastore.ListUpcomingClasses(ctx, s.postgresDB, time.Now().UTC())
	if err != nil {
		return nil, apperrors.New(apperrors.ErrDatabase, "list classes", err)
	}
	return classes, nil
}

// UpcomingText renders the !clases reply.
func (s *ServiceClass) UpcomingText(ctx context.Context) (string, error) {
	classes, err := s.Upcoming(ctx)
	if err != nil {
		return "", err
	}
	if len(classes) == 0 {
		return "📅 No hay clases programadas por ahora. ¡Atento a los anuncios!", nil
	}
	out := "📅 **Próximas clases:**\n"
	for _, class := range classes {
		out += fmt.Sprintf("• **%s** — %s UTC\n", categoryLabel(class.Category), class.ScheduledAt.UTC().Format("2006-01-02 15:04"))
	}
	return out, nil
}

func categoryLabel(category string) string {
	switch category {
	case models.ClassCategoryPremium:
		return "Clase Exclusiva (premium)"
	default:
		return "Clase Grupal (gratis)"
	}
}

func reminderChannel(category string) string {
	if category == models.ClassCategoryPremium {
		return ChannelPaidClasses
	}
	return ChannelFreeClasses
}

// ReminderTag maps time-until-class to the reminder wording: one tag
// at two days out, one the day before. Each window is an hour wide so
// an hourly sweep fires each reminder exactly once.
func ReminderTag(until time.Duration) (string, bool) {
	switch {
	case until > 47*time.Hour && until <= 48*time.Hour:
		return "2 días", true
	case until > 23*time.Hour && until <= 24*time.Hour:
		return "MAÑANA", true
	default:
		return "", false
	}
}

// Sweep deletes classes already past and posts the due reminders. Run
// hourly.
func (s *ServiceClass) Sweep(ctx context.Context) error {
	now := time.Now().UTC()
	deleted, err := datastore.DeleteExpiredClasses(ctx, s.postgresDB, now)
	if err != nil {
		return apperrors.New(apperrors.ErrDatabase, "delete expired classes", err)
	}
	if deleted > 0 {
		logger.WithFields(map[string]interface{}{"deleted": deleted}).Info("class sweep: expired classes removed")
	}

	classes, err := datastore.ListUpcomingClasses(ctx, s.postgresDB, now)
	if err != nil {
		return apperrors.New(apperrors.ErrDatabase, "list classes", err)
	}
	for _, class := range classes {
		tag, due := ReminderTag(class.ScheduledAt.Sub(now))
		if !due {
			continue
		}
		text := fmt.Sprintf(msgClassRemind, categoryLabel(class.Category), tag, class.ScheduledAt.UTC().Format("2006-01-02 15:04"))
		if err := s.gateway.SendChannel(ctx, reminderChannel(class.Category), text); err != nil {
			logger.WithFields(map[string]interface{}{"class_id": class.ID, "error": err}).
				Error("class sweep: reminder")
		}
	}
	return nil
}
