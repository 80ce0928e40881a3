package services

import (
	"context"
	"fmt"
	"time"

	"calistenia/internal/datastore"
	"calistenia/internal/interfaces"
	"calistenia/internal/models"
	"calistenia/internal/pkg/caching"
	"calistenia/internal/progression"
	apperrors "calistenia/pkg/errors"
	"calistenia/pkg/logger"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceProgress owns the XP pipeline: apply a message, detect the
// level-up, reconcile roles and announce.
type ServiceProgress struct {
	container  *do.Injector
	postgresDB *bun.DB
	cache      caching.Cache
	gateway    interfaces.Gateway
}

func NewServiceProgress(container *do.Injector) (*ServiceProgress, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}
	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}
	gateway, err := do.Invoke[interfaces.Gateway](container)
	if err != nil {
		return nil, err
	}

	return &ServiceProgress{
		container:  container,
		postgresDB: postgresDB,
		cache:      cache,
		gateway:    gateway,
	}, nil
}

// HandleMessage applies the XP for one guild message and, when the
// member crosses a level boundary, promotes and announces them.
func (s *ServiceProgress) HandleMessage(ctx context.Context, userID string, event progression.MessageEvent) (*models.XPApplied, error) {
	applied, err := datastore.ApplyMessageXP(ctx, s.postgresDB, userID, event, time.Now().UTC())
	if err != nil {
		return nil, apperrors.New(apperrors.ErrDatabase, "apply message xp", err)
	}
	_ = s.cache.Delete(ctx, DBKeyUserProgress(userID))

	if newLevel, ok := progression.DetectLevelUp(applied.PriorLevel, applied.XP); ok {
		s.promote(ctx, userID, newLevel)
	}
	return applied, nil
}

// promote reconciles the member's tier role and posts the level-up
// announcement. Failures are logged, never bubbled into the message
// path.
func (s *ServiceProgress) promote(ctx context.Context, userID string, level int) {
	held, err := s.gateway.MemberRoleNames(ctx, userID)
	if err != nil {
		logger.WithFields(map[string]interface{}{"user_id": userID, "error": err}).
			Error("level up: fetch member roles")
		return
	}
	directive := progression.Reconcile(level, held)
	if err := s.gateway.ApplyRoleDirective(ctx, userID, directive); err != nil {
		logger.WithFields(map[string]interface{}{"user_id": userID, "role": directive.Name, "error": err}).
			Error("level up: apply role")
		return
	}
	text := fmt.Sprintf(msgLevelUp, userID, level, directive.Name)
	if err := s.gateway.SendChannel(ctx, ChannelLevelUp, text); err != nil {
		logger.WithFields(map[string]interface{}{"user_id": userID, "error": err}).
			Error("level up: announce")
	}
}

// GrantXP adds a flat amount outside the message pipeline (admin test
// command). Amount must be positive; grants go through the same
// level-up reconciliation as organic XP.
func (s *ServiceProgress) GrantXP(ctx context.Context, userID string, amount int) (*models.XPApplied, error) {
	if amount <= 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "xp amount must be positive", nil)
	}
	applied, err := datastore.GrantXP(ctx, s.postgresDB, userID, amount, time.Now().UTC())
	if err != nil {
		return nil, apperrors.New(apperrors.ErrDatabase, "grant xp", err)
	}
	_ = s.cache.Delete(ctx, DBKeyUserProgress(userID))

	if newLevel, ok := progression.DetectLevelUp(applied.PriorLevel, applied.XP); ok {
		s.promote(ctx, userID, newLevel)
	}
	return applied, nil
}

// Profile returns the member's stored progression, cached briefly to
// keep the !nivel command off the database on busy days.
func (s *ServiceProgress) Profile(ctx context.Context, userID string) (*models.UserProgress, error) {
	return caching.UseCache(ctx, s.cache, DBKeyUserProgress(userID), cacheTTLProfile,
		func() (*models.UserProgress, error) {
			progress, err := datastore.FindUserProgress(ctx, s.postgresDB, userID)
			if err != nil {
				return nil, apperrors.New(apperrors.ErrDatabase, "find user progress", err)
			}
			return progress, nil
		})
}

// Welcome greets a new member in the welcome channel.
func (s *ServiceProgress) Welcome(ctx context.Context, userID string) error {
	text := fmt.Sprintf(msgWelcome, userID, ChannelIntroductions)
	return s.gateway.SendChannel(ctx, ChannelWelcome, text)
}

// ProfileLine renders the !nivel reply for a member.
func (s *ServiceProgress) ProfileLine(ctx context.Context, userID string) (string, error) {
	progress, err := s.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if progress == nil {
		return fmt.Sprintf("<@%s> todavía no tiene XP. ¡Escribe algo y empieza a sumar! 💪", userID), nil
	}
	nextAt := progress.Level * progression.XPPerLevel
	return fmt.Sprintf("📊 <@%s> — **Nivel %d** (%s) · %d XP · %d XP esta semana · faltan %d XP para el Nivel %d.",
		userID, progress.Level, progression.RoleNameForLevel(progress.Level),
		progress.XP, progress.WeeklyXP, nextAt-progress.XP, progress.Level+1), nil
}
