// Package telegram runs the mentor as a Telegram bot, one session per chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"mentorbot/internal/chat"
	"mentorbot/internal/gateway"
	"mentorbot/internal/mentor"
	"mentorbot/internal/planner"
)

// Telegram rejects messages over 4096 characters.
const maxMessageLen = 4000

// Bot runs the gateway behind a Telegram bot.
type Bot struct {
	bot    *tele.Bot
	gw     *gateway.Gateway
	logger *zap.Logger

	// serializes turns per chat
	locks sync.Map
}

// NewBot creates the Telegram adapter. The token comes from the config.
func NewBot(gw *gateway.Gateway) (*Bot, error) {
	token := gw.Config.TelegramToken
	if token == "" {
		return nil, errors.New("telegram token is required (MENTOR_TELEGRAM_TOKEN)")
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			gw.Logger.Error("telegram handler failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := newBot(b, gw)
	bot.setupHandlers()
	return bot, nil
}

func newBot(b *tele.Bot, gw *gateway.Gateway) *Bot {
	return &Bot{bot: b, gw: gw, logger: gw.Logger.Named("telegram")}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot", zap.String("username", b.bot.Me.Username))

	go func() {
		<-ctx.Done()
		b.logger.Info("shutting down telegram bot")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}

func (b *Bot) setupHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/learners", b.handleLearners)
	b.bot.Handle("/learner", b.handleLearner)
	b.bot.Handle("/clear", b.handleClear)
	b.bot.Handle(tele.OnText, b.handleMessage)
}

func sessionID(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}

func (b *Bot) lock(chatID int64) func() {
	v, _ := b.locks.LoadOrStore(chatID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send("👋 Hi! I help you find, create and schedule lessons.\n" +
		"Use /learners to see who you can plan for and /learner <id> to pick one.")
}

func (b *Bot) handleLearners(c tele.Context) error {
	learners, err := b.gw.Store.Learners(context.Background())
	if err != nil {
		b.logger.Error("list learners", zap.Error(err))
		return c.Send("⚠️ Couldn't load learners right now.")
	}
	if len(learners) == 0 {
		return c.Send("No learners yet.")
	}
	var sb strings.Builder
	for _, l := range learners {
		fmt.Fprintf(&sb, "%s: %s (%s)\n", l.ID, l.Name, l.Grade)
	}
	return c.Send(strings.TrimSpace(sb.String()))
}

func (b *Bot) handleLearner(c tele.Context) error {
	id := strings.TrimSpace(c.Message().Payload)
	if id == "" {
		return c.Send("Usage: /learner <id>")
	}
	defer b.lock(c.Chat().ID)()

	s := b.gw.Sessions.GetOrCreate(sessionID(c.Chat().ID))
	l, err := b.gw.SelectLearner(context.Background(), s, id)
	if errors.Is(err, planner.ErrNotFound) {
		return c.Send(fmt.Sprintf("I don't know a learner called %s. Try /learners.", id))
	}
	if err != nil {
		b.logger.Error("select learner", zap.String("learner", id), zap.Error(err))
		return c.Send("⚠️ Couldn't select that learner.")
	}
	return c.Send(fmt.Sprintf("Now planning for %s (%s).", l.Name, l.Grade))
}

func (b *Bot) handleClear(c tele.Context) error {
	defer b.lock(c.Chat().ID)()
	b.gw.Sessions.Drop(sessionID(c.Chat().ID))
	return c.Send("🧹 Conversation cleared.")
}

func (b *Bot) handleMessage(c tele.Context) error {
	chatID := c.Chat().ID
	_ = c.Notify(tele.Typing)

	defer b.lock(chatID)()
	s := b.gw.Sessions.GetOrCreate(sessionID(chatID))

	res, err := b.gw.Turn(context.Background(), s, c.Text())
	if errors.Is(err, chat.ErrEmptyInput) {
		return nil
	}
	if err != nil {
		b.logger.Error("turn failed", zap.Int64("chat", chatID), zap.Error(err))
		return c.Send("⚠️ Something went wrong. Please try again.")
	}

	text := res.Text
	if res.Receipt != nil {
		text += "\n\n" + receiptLine(res.Receipt)
	}
	if text == "" {
		return c.Send("🤷 I don't have a response for that.")
	}
	return sendLongMessage(c, text)
}

func receiptLine(r *planner.Receipt) string {
	switch r.Type {
	case mentor.ActionSchedule:
		return "✅ Added to the calendar."
	case mentor.ActionGenerate:
		return "✅ Lesson saved."
	case mentor.ActionEdit:
		return "✅ Edit request recorded."
	}
	return "✅ Saved."
}

func sendLongMessage(c tele.Context, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if err := c.Send(chunk); err != nil {
			return err
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a rune.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
