package notifier

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"vacancybot/internal/hh"
	"vacancybot/internal/storage"
	kit "vacancybot/internal/transport"
	"vacancybot/pkg/logx"
)

// Sender is the slice of the transport adapter the notifier needs.
type Sender interface {
	SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error)
}

// Directory resolves recipients and drops the unreachable ones.
type Directory interface {
	ActiveSubscribers(ctx context.Context) ([]storage.Subscriber, error)
	DeactivateSubscriber(ctx context.Context, telegramID int64) error
}

// Source fetches the current listing set for catch-up sends.
type Source interface {
	FetchAll(ctx context.Context, pairs []hh.SearchPair) ([]hh.Vacancy, error)
}

// SeenMarker records ids so later cycles skip them.
type SeenMarker interface {
	MarkSeen(ctx context.Context, vacancyID string) (bool, error)
}

type Config struct {
	// SendDelay paces consecutive per-recipient sends. Telegram tolerates
	// roughly 30 msg/s overall; 100ms keeps a comfortable margin.
	SendDelay time.Duration

	// CatchUpDelay postpones the catch-up burst so the subscribe
	// confirmation lands first.
	CatchUpDelay time.Duration

	// CatchUpLimit caps how many listings a new subscriber receives
	// individually; the rest is summarized in one trailing message.
	CatchUpLimit int
}

func (c *Config) fillDefaults() {
	if c.SendDelay <= 0 {
		c.SendDelay = 100 * time.Millisecond
	}
	if c.CatchUpDelay <= 0 {
		c.CatchUpDelay = 2 * time.Second
	}
	if c.CatchUpLimit <= 0 {
		c.CatchUpLimit = 10
	}
}

type Service struct {
	cfg    Config
	sender Sender
	dir    Directory
	source Source
	seen   SeenMarker
	log    logx.Logger

	limiter *rate.Limiter
}

func New(cfg Config, sender Sender, dir Directory, source Source, seen SeenMarker, log logx.Logger) *Service {
	cfg.fillDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		sender:  sender,
		dir:     dir,
		source:  source,
		seen:    seen,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(cfg.SendDelay), 1),
	}
}

var htmlOpts = &kit.SendOptions{ParseMode: "HTML"}

// Broadcast sends text to every active subscriber sequentially, paced by
// the send limiter. A failed delivery is logged and skipped; recipients
// that are gone for good get deactivated. Returns the successful count.
func (s *Service) Broadcast(ctx context.Context, text string) int {
	subs, err := s.dir.ActiveSubscribers(ctx)
	if err != nil {
		s.log.Error("listing active subscribers failed", logx.Err(err))
		return 0
	}

	sent := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return sent
		}
		if err := s.sendTo(ctx, sub.TelegramID, text); err != nil {
			continue
		}
		sent++
	}
	return sent
}

// BroadcastVacancy renders and broadcasts one listing.
func (s *Service) BroadcastVacancy(ctx context.Context, v hh.Vacancy) int {
	return s.Broadcast(ctx, Render(v))
}

// CatchUp sends the currently open listings to one freshly subscribed
// recipient: a short delay, a header with the total, up to CatchUpLimit
// most-recent listings individually, and a trailing summary when more
// exist. Every fetched id is marked seen so the next periodic cycle does
// not re-announce it to everyone.
func (s *Service) CatchUp(ctx context.Context, chatID int64, pairs []hh.SearchPair) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.CatchUpDelay):
	}

	vacs, err := s.source.FetchAll(ctx, pairs)
	if err != nil {
		// Partial results still get delivered; the remainder shows up in a
		// later cycle.
		s.log.Warn("catch-up fetch incomplete", logx.Int64("chat_id", chatID), logx.Err(err))
	}

	for _, v := range vacs {
		if _, err := s.seen.MarkSeen(ctx, v.ID); err != nil {
			s.log.Error("mark seen failed", logx.String("vacancy_id", v.ID), logx.Err(err))
		}
	}

	if len(vacs) == 0 {
		_ = s.sendTo(ctx, chatID, "📭 Сейчас открытых вакансий по вашим запросам нет.\nКак только появятся новые — пришлю уведомление.")
		return
	}

	header := fmt.Sprintf("📬 Сейчас открыто вакансий: <b>%d</b>", len(vacs))
	if err := s.sendTo(ctx, chatID, header); err != nil {
		return
	}

	limit := s.cfg.CatchUpLimit
	if limit > len(vacs) {
		limit = len(vacs)
	}
	for _, v := range vacs[:limit] {
		if ctx.Err() != nil {
			return
		}
		if err := s.sendTo(ctx, chatID, Render(v)); err != nil {
			return
		}
	}

	if rest := len(vacs) - limit; rest > 0 {
		_ = s.sendTo(ctx, chatID, fmt.Sprintf("…и ещё <b>%d</b> вакансий. Полный список на сайте hh.uz.", rest))
	}

	s.log.Info("catch-up sent", logx.Int64("chat_id", chatID), logx.Int("total", len(vacs)), logx.Int("delivered", limit))
}

// sendTo delivers one message to one recipient, waiting for the pacing
// limiter first. Returns the delivery error after logging it and, for
// permanently unreachable recipients, deactivating the subscription.
func (s *Service) sendTo(ctx context.Context, chatID int64, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.sender.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, htmlOpts)
	if err == nil {
		return nil
	}

	s.log.Warn("send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	if kit.IsRecipientGone(err) {
		if derr := s.dir.DeactivateSubscriber(ctx, chatID); derr != nil {
			s.log.Error("deactivate failed", logx.Int64("chat_id", chatID), logx.Err(derr))
		} else {
			s.log.Info("subscriber deactivated (unreachable)", logx.Int64("chat_id", chatID))
		}
	}
	return err
}
