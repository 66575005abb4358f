package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/aggregate"
	"personastats/internal/chain"
	"personastats/internal/checkpoint"
	"personastats/internal/dispatch"
	"personastats/internal/domain"
	"personastats/internal/pubsub"
	"personastats/internal/store"
)

var (
	ErrPersonaNotFound = errors.New("persona not found")
	ErrStatsNotFound   = errors.New("stats not found")
	ErrInvalidDay      = errors.New("day must be formatted as YYYY-MM-DD")
)

// Health probe of an infra dependency; nil receiver-safety is the caller's job
type HealthChecker interface {
	Health(ctx context.Context) error
}

// The only orchestration point: dispatch -> aggregate -> broadcast ->
// checkpoint. Serves reads for HTTP handlers from the same store the batch
// pipeline writes to.
type IndexerService struct {
	log         logger.Logger
	dispatcher  *dispatch.Dispatcher
	engine      *aggregate.Engine
	store       store.Store
	broadcaster pubsub.Broadcaster // optional
	cp          checkpoint.Checkpoint
	journal     HealthChecker // optional
}

func NewIndexerService(
	log logger.Logger,
	dispatcher *dispatch.Dispatcher,
	engine *aggregate.Engine,
	st store.Store,
	broadcaster pubsub.Broadcaster,
	cp checkpoint.Checkpoint,
) *IndexerService {
	return &IndexerService{
		log:         log,
		dispatcher:  dispatcher,
		engine:      engine,
		store:       st,
		broadcaster: broadcaster,
		cp:          cp,
	}
}

// ProcessBatch applies one contiguous run of blocks. The checkpoint moves only
// after the aggregation pass, so a crash mid-batch replays the whole batch;
// the per-entity pre-existence checks make the rerun harmless.
func (s *IndexerService) ProcessBatch(ctx context.Context, blocks []chain.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	touched, err := s.dispatcher.ProcessBlocks(ctx, blocks)
	if err != nil {
		return fmt.Errorf("batch dispatch failed: %w", err)
	}

	res, err := s.engine.Run(ctx, touched)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	// broadcast is best effort, subscribers catch up on the next batch
	s.broadcast(ctx, res)

	height := blocks[len(blocks)-1].Height
	if err := s.cp.Commit(ctx, height); err != nil {
		return fmt.Errorf("checkpoint commit failed at %d: %w", height, err)
	}

	s.log.Debugf("Batch applied: %d blocks up to %d, %d daily scopes recomputed",
		touched.Blocks, height, len(res.Dailies))
	return nil
}

func (s *IndexerService) broadcast(ctx context.Context, res *aggregate.Result) {
	if s.broadcaster == nil || res == nil {
		return
	}

	if res.Global != nil {
		if err := s.broadcaster.Publish(ctx, "global", res.Global); err != nil {
			s.log.Errorf("Failed to broadcast global stats: %v", err)
		}
	}
	for _, d := range res.Dailies {
		if err := s.broadcaster.Publish(ctx, "daily."+d.ID, d); err != nil {
			s.log.Errorf("Failed to broadcast daily stats %s: %v", d.ID, err)
		}
	}
	for _, pd := range res.PersonaDailies {
		subject := "persona." + pd.PersonaID + "." + pd.Date
		if err := s.broadcaster.Publish(ctx, subject, pd); err != nil {
			s.log.Errorf("Failed to broadcast persona daily stats %s: %v", pd.ID, err)
		}
	}
}

// Resume returns the height the next batch should start after
func (s *IndexerService) Resume(ctx context.Context) (uint64, error) {
	return s.cp.Load(ctx)
}

func (s *IndexerService) GetGlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	g, err := store.GetAs[*domain.GlobalStats](ctx, s.store, domain.KindGlobalStats, domain.GlobalStatsID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrStatsNotFound
	}
	return g, err
}

func (s *IndexerService) GetDailyStats(ctx context.Context, day string) (*domain.DailyStats, error) {
	if _, _, err := domain.DayWindow(day); err != nil {
		return nil, ErrInvalidDay
	}

	d, err := store.GetAs[*domain.DailyStats](ctx, s.store, domain.KindDailyStats, day)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrStatsNotFound
	}
	return d, err
}

func (s *IndexerService) GetPersona(ctx context.Context, id string) (*domain.Persona, error) {
	p, err := store.GetAs[*domain.Persona](ctx, s.store, domain.KindPersona, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPersonaNotFound
	}
	return p, err
}

func (s *IndexerService) GetPersonaDailyStats(ctx context.Context, personaID, day string) (*domain.PersonaDailyStats, error) {
	if _, _, err := domain.DayWindow(day); err != nil {
		return nil, ErrInvalidDay
	}

	row, err := store.GetAs[*domain.PersonaDailyStats](ctx, s.store, domain.KindPersonaDailyStats, domain.PersonaDayID(personaID, day))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrStatsNotFound
	}
	return row, err
}

// SetJournalHealth registers the ClickHouse writer for readiness checks
func (s *IndexerService) SetJournalHealth(h HealthChecker) {
	s.journal = h
}

func (s *IndexerService) CheckDependency(ctx context.Context) error {
	errDependency := make([]string, 0, 2)

	if s.broadcaster != nil {
		if err := s.broadcaster.Health(ctx); err != nil {
			errDependency = append(errDependency, fmt.Sprintf("NATS connection error: %v", err))
		}
	}

	if s.journal != nil {
		if err := s.journal.Health(ctx); err != nil {
			errDependency = append(errDependency, fmt.Sprintf("ClickHouse connection error: %v", err))
		}
	}

	if len(errDependency) > 0 {
		return fmt.Errorf("dependency check failed: %v", strings.Join(errDependency, "; "))
	}

	s.log.Debugf("All dependency check passed")
	return nil
}
