// Package telegram delivers alert texts to a Telegram channel.
package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	drepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

// Notifier posts Markdown messages to one chat or channel.
type Notifier struct {
	bot    *bot.Bot
	chatID string
}

type Option func(*options)

type options struct {
	serverURL string
}

// WithServerURL points the client at a different Bot API host.
func WithServerURL(url string) Option {
	return func(o *options) { o.serverURL = url }
}

// New creates a notifier. The token is not validated until the first send.
func New(token, chatID string, opts ...Option) (*Notifier, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("telegram: token and chat id are required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	botOpts := []bot.Option{bot.WithSkipGetMe()}
	if o.serverURL != "" {
		botOpts = append(botOpts, bot.WithServerURL(o.serverURL))
	}
	b, err := bot.New(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Notifier{bot: b, chatID: chatID}, nil
}

// Notify sends text with Markdown formatting.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// LogNotifier writes alerts to the log instead of Telegram. Used when the
// channel is not configured.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(l *logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Nop()
	}
	return &LogNotifier{logger: l.With(logger.String("component", "notifier"))}
}

func (n *LogNotifier) Notify(_ context.Context, text string) error {
	n.logger.Info("alert", logger.String("text", text))
	return nil
}

var (
	_ drepo.Notifier = (*Notifier)(nil)
	_ drepo.Notifier = (*LogNotifier)(nil)
)
