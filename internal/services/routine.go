package services

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"calistenia/internal/config"
	"calistenia/internal/datastore/redis_store"
	"calistenia/internal/interfaces"
	"calistenia/internal/models"
	"calistenia/internal/pkg"
	apperrors "calistenia/pkg/errors"
	"calistenia/pkg/logger"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/mroth/weightedrand/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// RowFetcher pulls the routine catalog. The production implementation
// reads a published spreadsheet CSV; tests hand in a stub.
type RowFetcher interface {
	FetchRows(ctx context.Context) ([]models.RoutineRow, error)
}

// SheetFetcher reads routine rows from a CSV export URL with columns
// title, description and an optional numeric weight.
type SheetFetcher struct {
	url    string
	client Doer
}

func NewSheetFetcher(url string) *SheetFetcher {
	return &SheetFetcher{
		url: url,
		client: httpclient.NewClient(
			httpclient.WithHTTPTimeout(15*time.Second),
			httpclient.WithRetryCount(2),
		),
	}
}

func (f *SheetFetcher) FetchRows(ctx context.Context) ([]models.RoutineRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrService, "build sheet request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrService, "fetch routine sheet", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrService, "routine sheet status "+strconv.Itoa(resp.StatusCode), nil)
	}
	return parseRows(resp.Body)
}

// parseRows tolerates a header row and blank lines; rows without a
// weight default to 1.
func parseRows(r io.Reader) ([]models.RoutineRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows []models.RoutineRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.New(apperrors.ErrService, "parse routine sheet", err)
		}
		if len(record) < 2 {
			continue
		}
		title := strings.TrimSpace(record[0])
		description := strings.TrimSpace(record[1])
		if title == "" || strings.EqualFold(title, "title") || strings.EqualFold(title, "titulo") {
			continue
		}
		weight := 1
		if len(record) > 2 {
			if w, err := strconv.Atoi(strings.TrimSpace(record[2])); err == nil && w > 0 {
				weight = w
			}
		}
		rows = append(rows, models.RoutineRow{Title: title, Description: description, Weight: weight})
	}
	return rows, nil
}

// ServiceRoutine posts the daily routine, never repeating a title
// within the same ISO week.
type ServiceRoutine struct {
	container *do.Injector
	cfg       *config.Config
	redisDB   redis.UniversalClient
	gateway   interfaces.Gateway
	fetcher   RowFetcher
	coach     *ServiceCoach
}

func NewServiceRoutine(container *do.Injector) (*ServiceRoutine, error) {
	cfg, err := do.Invoke[*config.Config](container)
	if err != nil {
		return nil, err
	}
	redisDB, err := do.Invoke[redis.UniversalClient](container)
	if err != nil {
		return nil, err
	}
	gateway, err := do.Invoke[interfaces.Gateway](container)
	if err != nil {
		return nil, err
	}
	coach, err := do.Invoke[*ServiceCoach](container)
	if err != nil {
		return nil, err
	}

	return &ServiceRoutine{
		container: container,
		cfg:       cfg,
		redisDB:   redisDB,
		gateway:   gateway,
		fetcher:   NewSheetFetcher(cfg.RoutineSheetURL),
		coach:     coach,
	}, nil
}

func (s *ServiceRoutine) Enabled() bool {
	return s.cfg.RoutineSheetURL != ""
}

// rows returns the catalog, preferring the short-lived redis copy over
// hitting the sheet on every run.
func (s *ServiceRoutine) rows(ctx context.Context) ([]models.RoutineRow, error) {
	cached, err := redis_store.CachedRoutineRows(ctx, s.redisDB)
	if err != nil {
		logger.WithFields(map[string]interface{}{"error": err}).Warn("routine: read cache")
	}
	if len(cached) > 0 {
		return cached, nil
	}
	rows, err := s.fetcher.FetchRows(ctx)
	if err != nil {
		return nil, err
	}
	if err := redis_store.CacheRoutineRows(ctx, s.redisDB, rows); err != nil {
		logger.WithFields(map[string]interface{}{"error": err}).Warn("routine: write cache")
	}
	return rows, nil
}

func filterUnused(rows []models.RoutineRow, used map[string]bool) []models.RoutineRow {
	out := make([]models.RoutineRow, 0, len(rows))
	for _, row := range rows {
		if !used[row.Title] {
			out = append(out, row)
		}
	}
	return out
}

func pickWeighted(rows []models.RoutineRow) (models.RoutineRow, error) {
	choices := make([]weightedrand.Choice[models.RoutineRow, int], 0, len(rows))
	for _, row := range rows {
		weight := row.Weight
		if weight <= 0 {
			weight = 1
		}
		choices = append(choices, weightedrand.NewChoice(row, weight))
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return models.RoutineRow{}, apperrors.New(apperrors.ErrService, "build routine chooser", err)
	}
	return chooser.Pick(), nil
}

// PostDaily picks today's routine and publishes it. When every title
// has been used this week the used set is cleared and the whole
// catalog is back in rotation.
func (s *ServiceRoutine) PostDaily(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	rows, err := s.rows(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return apperrors.New(apperrors.ErrService, "routine sheet is empty", nil)
	}

	week := pkg.ISOWeekKey(time.Now().UTC())
	used, err := redis_store.UsedRoutineTitles(ctx, s.redisDB, week)
	if err != nil {
		logger.WithFields(map[string]interface{}{"error": err}).Warn("routine: read used set")
		used = map[string]bool{}
	}

	candidates := filterUnused(rows, used)
	if len(candidates) == 0 {
		if err := redis_store.ClearUsedRoutines(ctx, s.redisDB, week); err != nil {
			logger.WithFields(map[string]interface{}{"error": err}).Warn("routine: clear used set")
		}
		candidates = rows
	}

	picked, err := pickWeighted(candidates)
	if err != nil {
		return err
	}

	text := "💪 **Rutina del día: " + picked.Title + "**\n" + picked.Description
	if s.coach.Enabled() {
		if enhanced, err := s.coach.EnhanceRoutine(ctx, picked.Title, picked.Description); err == nil {
			text = enhanced
		} else {
			logger.WithFields(map[string]interface{}{"error": err}).Warn("routine: enhance failed, posting raw")
		}
	}

	if err := s.gateway.SendChannel(ctx, ChannelWeeklyRoutine, text); err != nil {
		return err
	}
	if err := redis_store.MarkRoutineUsed(ctx, s.redisDB, week, picked.Title); err != nil {
		logger.WithFields(map[string]interface{}{"title": picked.Title, "error": err}).Warn("routine: mark used")
	}
	return nil
}
