// Package bot handles inbound chat commands: subscribe, unsubscribe and
// status. Handlers are thin request/response wrappers around the store; the
// only side effect beyond a reply is the catch-up task spawned on subscribe.
package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"vacancybot/internal/hh"
	"vacancybot/internal/notifier"
	"vacancybot/internal/runtime/supervisor"
	"vacancybot/internal/storage"
	kit "vacancybot/internal/transport"
	"vacancybot/pkg/logx"
)

// menuCommands is what shows up in the Telegram "/" menu.
var menuCommands = []kit.BotCommand{
	{Command: "start", Description: "Подписаться на уведомления"},
	{Command: "stop", Description: "Отписаться от уведомлений"},
	{Command: "status", Description: "Статус бота"},
}

type Service struct {
	adapter  kit.Adapter
	store    storage.Store
	notif    *notifier.Service
	pairsFn  func() []hh.SearchPair
	interval time.Duration
	log      logx.Logger
}

func New(adapter kit.Adapter, store storage.Store, notif *notifier.Service, pairsFn func() []hh.SearchPair, interval time.Duration, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		adapter:  adapter,
		store:    store,
		notif:    notif,
		pairsFn:  pairsFn,
		interval: interval,
		log:      log,
	}
}

// Run starts the transport and consumes updates until ctx is canceled.
// Catch-up tasks run under sup so shutdown waits for (or cancels) them.
func (s *Service) Run(ctx context.Context, sup *supervisor.Supervisor) error {
	updates := make(chan kit.Update, 64)
	if err := s.adapter.Start(ctx, updates); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	if mu, ok := s.adapter.(kit.CommandMenuUpdater); ok {
		if err := mu.UpdateMenuCommands(ctx, menuCommands); err != nil {
			s.log.Warn("menu update failed", logx.Err(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return s.adapter.Stop(context.Background())
		case up := <-updates:
			if up.Message == nil {
				continue
			}
			s.dispatch(ctx, sup, up.Message)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, sup *supervisor.Supervisor, m *kit.Message) {
	cmd := commandOf(m.Text)
	switch cmd {
	case "/start":
		s.handleStart(ctx, sup, m)
	case "/stop":
		s.handleStop(ctx, m)
	case "/status":
		s.handleStatus(ctx, m)
	default:
		// Plain chatter is ignored; the bot only speaks when spoken to
		// with a command.
	}
}

// commandOf extracts the leading command token, tolerating "/start@botname".
func commandOf(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd := fields[0]
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

func (s *Service) handleStart(ctx context.Context, sup *supervisor.Supervisor, m *kit.Message) {
	sub := storage.Subscriber{
		TelegramID: m.FromID,
		Username:   m.FromUsername,
		FirstName:  m.FromFirstName,
	}
	if err := s.store.UpsertSubscriber(ctx, sub); err != nil {
		s.log.Error("subscribe failed", logx.Int64("telegram_id", m.FromID), logx.Err(err))
		s.reply(ctx, m, "⚠️ Не получилось оформить подписку, попробуйте ещё раз позже.")
		return
	}

	counts, err := s.store.SubscriberCounts(ctx)
	if err != nil {
		s.log.Error("subscriber counts failed", logx.Err(err))
	}

	name := strings.TrimSpace(m.FromFirstName)
	if name == "" {
		name = "друг"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👋 Привет, <b>%s</b>!\n\n", html.EscapeString(name))
	b.WriteString("🔔 Вы подписаны на уведомления о вакансиях:\n")
	for _, q := range s.queries() {
		fmt.Fprintf(&b, "• %s\n", html.EscapeString(q))
	}
	b.WriteString("\n📍 Регион: Узбекистан\n")
	b.WriteString("🎯 Фильтр: без опыта работы\n")
	fmt.Fprintf(&b, "⏱ Проверка каждые %d мин.\n\n", int(s.interval.Minutes()))
	b.WriteString("Чтобы отписаться, отправьте /stop\n\n")
	fmt.Fprintf(&b, "👥 Всего подписчиков: %d", counts.Active)
	s.reply(ctx, m, b.String())

	s.log.Info("user subscribed", logx.Int64("telegram_id", m.FromID), logx.String("username", m.FromUsername))

	chatID := m.ChatID
	sup.Go0(fmt.Sprintf("catchup.%d", chatID), func(ctx context.Context) {
		s.notif.CatchUp(ctx, chatID, s.pairsFn())
	})
}

func (s *Service) handleStop(ctx context.Context, m *kit.Message) {
	if err := s.store.DeactivateSubscriber(ctx, m.FromID); err != nil {
		s.log.Error("unsubscribe failed", logx.Int64("telegram_id", m.FromID), logx.Err(err))
		s.reply(ctx, m, "⚠️ Не получилось отписаться, попробуйте ещё раз позже.")
		return
	}

	name := strings.TrimSpace(m.FromFirstName)
	if name == "" {
		name = "Пользователь"
	}
	s.reply(ctx, m, fmt.Sprintf(
		"👋 <b>%s</b>, вы отписались от уведомлений.\n\nЧтобы подписаться снова, отправьте /start",
		html.EscapeString(name)))

	s.log.Info("user unsubscribed", logx.Int64("telegram_id", m.FromID), logx.String("username", m.FromUsername))
}

func (s *Service) handleStatus(ctx context.Context, m *kit.Message) {
	counts, err := s.store.SubscriberCounts(ctx)
	if err != nil {
		s.log.Error("subscriber counts failed", logx.Err(err))
		s.reply(ctx, m, "⚠️ Статус временно недоступен.")
		return
	}
	s.reply(ctx, m, fmt.Sprintf(
		"📊 <b>Статус бота</b>\n\n👥 Активных подписчиков: %d\n📝 Всего пользователей: %d\n⏱ Интервал проверки: %d мин.",
		counts.Active, counts.Total, int(s.interval.Minutes())))
}

func (s *Service) reply(ctx context.Context, m *kit.Message, text string) {
	_, err := s.adapter.SendText(ctx, kit.ChatTarget{ChatID: m.ChatID}, text, &kit.SendOptions{ParseMode: "HTML"})
	if err != nil {
		s.log.Warn("reply failed", logx.Int64("chat_id", m.ChatID), logx.Err(err))
	}
}

// queries lists the distinct query strings of the current search set.
func (s *Service) queries() []string {
	var (
		out  []string
		seen = map[string]struct{}{}
	)
	for _, p := range s.pairsFn() {
		if _, ok := seen[p.Query]; ok {
			continue
		}
		seen[p.Query] = struct{}{}
		out = append(out, p.Query)
	}
	return out
}
