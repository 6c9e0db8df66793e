// Package poller drives the periodic poll→diff→notify cycle: fetch every
// configured search pair, drop already-seen listings, persist the new ids,
// and fan the fresh listings out to subscribers, newest first.
package poller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"vacancybot/internal/hh"
	"vacancybot/pkg/logx"
)

// Source fetches the union of listings for the configured pairs.
type Source interface {
	FetchAll(ctx context.Context, pairs []hh.SearchPair) ([]hh.Vacancy, error)
}

// Store is the seen-id slice of the persistence layer. MarkSeen reports
// whether the id was newly recorded.
type Store interface {
	MarkSeen(ctx context.Context, vacancyID string) (bool, error)
}

// Broadcaster delivers one rendered listing to all active subscribers.
type Broadcaster interface {
	BroadcastVacancy(ctx context.Context, v hh.Vacancy) int
}

type Config struct {
	// Interval between cycles; used when Schedule is empty.
	Interval time.Duration

	// Schedule optionally overrides Interval with a cron or duration spec.
	Schedule string

	// WarmupDelay pushes the first cycle past process start so the
	// transport is connected before the first fan-out.
	WarmupDelay time.Duration

	// ItemDelay separates broadcasts of distinct listings.
	ItemDelay time.Duration
}

func (c *Config) fillDefaults() {
	if c.Interval <= 0 {
		c.Interval = 300 * time.Second
	}
	if c.WarmupDelay < 0 {
		c.WarmupDelay = 0
	}
	if c.ItemDelay <= 0 {
		c.ItemDelay = 500 * time.Millisecond
	}
}

type Service struct {
	cfg    Config
	source Source
	store  Store
	bc     Broadcaster
	log    logx.Logger

	pairsMu sync.RWMutex
	pairs   []hh.SearchPair

	// busy guards against overlapping cycles under cron triggers.
	busy atomic.Bool
}

func New(cfg Config, source Source, store Store, bc Broadcaster, pairs []hh.SearchPair, log logx.Logger) *Service {
	cfg.fillDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		source: source,
		store:  store,
		bc:     bc,
		pairs:  pairs,
		log:    log,
	}
}

// SetPairs swaps the search fan-out, used by the searches-file hot reload.
// The new set takes effect on the next cycle.
func (s *Service) SetPairs(pairs []hh.SearchPair) {
	s.pairsMu.Lock()
	s.pairs = pairs
	s.pairsMu.Unlock()
}

func (s *Service) Pairs() []hh.SearchPair {
	s.pairsMu.RLock()
	defer s.pairsMu.RUnlock()
	return s.pairs
}

// Run blocks until ctx is canceled. Cycle failures are logged and the next
// trigger fires on schedule regardless.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.WarmupDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.WarmupDelay):
		}
	}

	if s.cfg.Schedule != "" {
		spec, err := ParseSchedule(s.cfg.Schedule)
		if err != nil {
			return err
		}
		if spec.Kind == SpecCron {
			return s.runCron(ctx, spec.Cron)
		}
		s.cfg.Interval = spec.Every
	}

	s.log.Info("poll loop started", logx.Duration("interval", s.cfg.Interval))
	for {
		s.safeCycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.Interval):
		}
	}
}

func (s *Service) runCron(ctx context.Context, expr string) error {
	c := cron.New()
	if _, err := c.AddFunc(expr, func() { s.safeCycle(ctx) }); err != nil {
		return fmt.Errorf("cron schedule: %w", err)
	}
	s.log.Info("poll loop started", logx.String("cron", expr))
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return ctx.Err()
}

// safeCycle runs one cycle and absorbs anything it throws: an error or a
// panic must never take the schedule down.
func (s *Service) safeCycle(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.log.Warn("cycle still running, skipping trigger")
		return
	}
	defer s.busy.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("cycle panicked", logx.Any("panic", r))
		}
	}()

	if err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("cycle failed", logx.Err(err))
	}
}

// RunCycle performs one poll→diff→notify pass.
func (s *Service) RunCycle(ctx context.Context) error {
	started := time.Now()

	vacs, err := s.source.FetchAll(ctx, s.Pairs())
	if err != nil {
		// Partial results are still worth announcing; a fully failed fetch
		// just produces an empty cycle.
		s.log.Warn("listing fetch incomplete", logx.Err(err))
	}

	// Mark ids seen before sending: a crash mid-send loses at most one
	// notification instead of re-announcing the batch forever.
	fresh := vacs[:0:0]
	for _, v := range vacs {
		inserted, err := s.store.MarkSeen(ctx, v.ID)
		if err != nil {
			return fmt.Errorf("mark seen %s: %w", v.ID, err)
		}
		if inserted {
			fresh = append(fresh, v)
		}
	}

	if len(fresh) == 0 {
		s.log.Info("no new vacancies", logx.Int("fetched", len(vacs)), logx.Duration("took", time.Since(started)))
		return nil
	}

	s.log.Info("new vacancies found", logx.Int("count", len(fresh)))
	for i, v := range fresh {
		sent := s.bc.BroadcastVacancy(ctx, v)
		s.log.Info("vacancy broadcast",
			logx.String("vacancy_id", v.ID),
			logx.String("title", v.Name),
			logx.Int("sent", sent))
		if i == len(fresh)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.ItemDelay):
		}
	}
	return nil
}
