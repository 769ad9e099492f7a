package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/okaralov/planner/internal/app"
	"github.com/okaralov/planner/internal/notify"
	log "github.com/sirupsen/logrus"
)

const updateTimeout = 60

type Config struct {
	Token string
}

// Bot serves the command surface and delivers reminder notifications
// through the Telegram Bot API.
type Bot struct {
	api *tgbotapi.BotAPI
	app *app.App
}

func New(config Config, a *app.App) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	return &Bot{api: api, app: a}, nil
}

// Send implements notify.Sender.
func (b *Bot) Send(_ context.Context, n notify.Notification) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(n.ChatID, notify.Format(n))); err != nil {
		return fmt.Errorf("failed to send notification for event %d: %w", n.EventID, err)
	}
	return nil
}

// Run handles incoming commands until ctx is canceled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	userID := m.From.ID
	switch m.Command() {
	case "start":
		b.reply(m, fmt.Sprintf(
			"Привіт! Я планувальник подій. Твій ID: %d\nВикористовуй веб-додаток для створення планів.",
			userID,
		))
	case "creategroup":
		name := strings.TrimSpace(m.CommandArguments())
		if name == "" {
			name = "Нова група"
		}
		group, err := b.app.CreateGroup(ctx, userID, name, nil)
		if err != nil {
			log.Errorf("failed to create group for user %d: %v", userID, err)
			b.reply(m, "Не вдалося створити групу.")
			return
		}
		inviteLink := fmt.Sprintf(
			"https://t.me/share/url?url=https://t.me/%s?start=join_%s",
			b.api.Self.UserName, group.ID,
		)
		b.reply(m, fmt.Sprintf(
			"Група '%s' створена!\nID групи: %s\nПосилання для запрошення: %s",
			group.Name, group.ID, inviteLink,
		))
	case "mygroups":
		groups, err := b.app.GetGroupsByUser(ctx, userID)
		if err != nil {
			log.Errorf("failed to get groups for user %d: %v", userID, err)
			b.reply(m, "Не вдалося отримати список груп.")
			return
		}
		if len(groups) == 0 {
			b.reply(m, "У тебе поки немає груп.")
			return
		}
		lines := make([]string, 0, len(groups)+1)
		lines = append(lines, "Твої групи:")
		for _, g := range groups {
			lines = append(lines, fmt.Sprintf("• %s (%s)", g.Name, g.ID))
		}
		b.reply(m, strings.Join(lines, "\n"))
	case "myevents":
		events, err := b.app.GetEventsByUser(ctx, userID)
		if err != nil {
			log.Errorf("failed to get events for user %d: %v", userID, err)
			b.reply(m, "Не вдалося отримати список подій.")
			return
		}
		if len(events) == 0 {
			b.reply(m, "У тебе поки немає подій.")
			return
		}
		lines := make([]string, 0, len(events)+1)
		lines = append(lines, "Твої події:")
		for _, e := range events {
			lines = append(lines, fmt.Sprintf("• %s — %s", e.Title, e.EventTime.Format("2006-01-02 15:04")))
		}
		b.reply(m, strings.Join(lines, "\n"))
	default:
		b.reply(m, "Невідома команда.")
	}
}

func (b *Bot) reply(m *tgbotapi.Message, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(m.Chat.ID, text)); err != nil {
		log.Errorf("failed to reply in chat %d: %v", m.Chat.ID, err)
	}
}
