package services

import (
	"context"
	"fmt"

	"calistenia/internal/datastore"
	"calistenia/internal/interfaces"
	"calistenia/internal/models"
	apperrors "calistenia/pkg/errors"
	"calistenia/pkg/logger"

	"github.com/go-redsync/redsync/v4"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceRanking runs the weekly competition: publish the top ten,
// crown the champion, then reset everyone's weekly XP.
type ServiceRanking struct {
	container  *do.Injector
	postgresDB *bun.DB
	rs         *redsync.Redsync
	gateway    interfaces.Gateway
}

func NewServiceRanking(container *do.Injector) (*ServiceRanking, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}
	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}
	gateway, err := do.Invoke[interfaces.Gateway](container)
	if err != nil {
		return nil, err
	}

	return &ServiceRanking{
		container:  container,
		postgresDB: postgresDB,
		rs:         rs,
		gateway:    gateway,
	}, nil
}

// WeeklyTop exposes the current standings without side effects.
func (s *ServiceRanking) WeeklyTop(ctx context.Context, limit int) ([]*models.RankingEntry, error) {
	if limit <= 0 || limit > RankingSize {
		limit = RankingSize
	}
	top, err := datastore.GetWeeklyTop(ctx, s.postgresDB, limit)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrDatabase, "weekly top", err)
	}
	return top, nil
}

// RunWeeklyCycle is the Sunday close. The mutex keeps a second replica
// from crowning two champions; the weekly reset runs last so a failure
// anywhere earlier leaves the standings intact for a retry.
func (s *ServiceRanking) RunWeeklyCycle(ctx context.Context) error {
	mutex := s.rs.NewMutex(LockKeyWeeklyRanking())
	if err := mutex.TryLockContext(ctx); err != nil {
		logger.Warn("weekly cycle already running elsewhere, skipping")
		return nil
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			logger.WithFields(map[string]interface{}{"error": err}).Warn("weekly cycle: unlock")
		}
	}()

	top, err := datastore.GetWeeklyTop(ctx, s.postgresDB, RankingSize)
	if err != nil {
		return apperrors.New(apperrors.ErrDatabase, "weekly top", err)
	}
	if len(top) == 0 {
		logger.Info("weekly cycle: nobody earned xp this week")
		return nil
	}

	if err := s.gateway.SendEmbed(ctx, ChannelRanking, rankingEmbed(top)); err != nil {
		return err
	}

	if err := s.crownChampion(ctx, top[0]); err != nil {
		return err
	}

	s.sendTopDMs(ctx, top)

	if err := datastore.ResetWeeklyXP(ctx, s.postgresDB); err != nil {
		return apperrors.New(apperrors.ErrDatabase, "reset weekly xp", err)
	}
	logger.WithFields(map[string]interface{}{"entries": len(top), "champion": top[0].UserID}).
		Info("weekly cycle completed")
	return nil
}

func rankingEmbed(top []*models.RankingEntry) *models.Embed {
	medals := []string{"🥇", "🥈", "🥉"}
	embed := &models.Embed{
		Title:       "🏆 RANKING SEMANAL 🏆",
		Description: "Los atletas más constantes de la semana:",
		Color:       ChampionRoleColor,
		Footer:      "Nueva semana, contador a cero. ¡A sumar XP!",
	}
	for i, entry := range top {
		marker := fmt.Sprintf("#%d", i+1)
		if i < len(medals) {
			marker = medals[i]
		}
		embed.Fields = append(embed.Fields, models.EmbedField{
			Name:   fmt.Sprintf("%s Puesto %d", marker, i+1),
			Value:  fmt.Sprintf("<@%s> — **%d XP**", entry.UserID, entry.WeeklyXP),
			Inline: false,
		})
	}
	return embed
}

// crownChampion numbers the week from the stored counter and assigns
// the mentionable champion role. The counter is seeded once from the
// champion roles already present so established servers keep their
// numbering.
func (s *ServiceRanking) crownChampion(ctx context.Context, champion *models.RankingEntry) error {
	stored, err := datastore.GetCounter(ctx, s.postgresDB, championCounterName)
	if err != nil {
		return apperrors.New(apperrors.ErrDatabase, "read champion counter", err)
	}
	if stored == nil {
		prior, err := s.gateway.CountRolesWithPrefix(ctx, ChampionRolePrefix)
		if err != nil {
			logger.WithFields(map[string]interface{}{"error": err}).
				Warn("champion: count existing roles, seeding from zero")
			prior = 0
		}
		if err := datastore.SeedCounter(ctx, s.postgresDB, championCounterName, int64(prior)); err != nil {
			return apperrors.New(apperrors.ErrDatabase, "seed champion counter", err)
		}
	}
	week, err := datastore.NextCounterValue(ctx, s.postgresDB, championCounterName)
	if err != nil {
		return apperrors.New(apperrors.ErrDatabase, "next champion number", err)
	}

	roleName := fmt.Sprintf("%s%d", ChampionRolePrefix, week)
	if err := s.gateway.AssignNamedRole(ctx, champion.UserID, roleName, ChampionRoleColor, true); err != nil {
		return err
	}
	text := fmt.Sprintf(msgChampion, champion.UserID, week, champion.WeeklyXP)
	return s.gateway.SendChannel(ctx, ChannelRanking, text)
}

// sendTopDMs congratulates each finisher privately on servers big
// enough that the ranking channel scrolls past. Per-user failures
// (closed DMs) are logged and skipped.
func (s *ServiceRanking) sendTopDMs(ctx context.Context, top []*models.RankingEntry) {
	members, err := s.gateway.MemberCount(ctx)
	if err != nil {
		logger.WithFields(map[string]interface{}{"error": err}).Warn("weekly cycle: member count")
		return
	}
	if members <= MinMembersForTopDMs {
		return
	}
	for i, entry := range top {
		text := fmt.Sprintf(msgTopDM, i+1, entry.WeeklyXP)
		if err := s.gateway.SendDM(ctx, entry.UserID, text); err != nil {
			logger.WithFields(map[string]interface{}{"user_id": entry.UserID, "error": err}).
				Warn("weekly cycle: dm skipped")
		}
	}
}
