package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
)

// Event types used for operator-side filtering.
const (
	EventTrade = "trade"
	EventToken = "token"
)

// NewFromConfig assembles a Notifier with every configured channel. With no
// channels configured it returns a Notifier that silently drops everything.
func NewFromConfig(cfg config.NotifyConfig, logger *slog.Logger) *Notifier {
	var senders []Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		senders = append(senders, NewDiscordSender(cfg.DiscordWebhookURL))
	}
	return NewNotifier(senders, cfg.Events, logger)
}

// TradeDispatched reports a dispatched trade. Failures are logged inside
// the dispatch path; callers fire and forget.
func (n *Notifier) TradeDispatched(ctx context.Context, trade domain.Trade) {
	title := "Trade sent"
	if trade.Outcome == domain.OutcomeSendFailed {
		title = "Trade send failed"
	}
	msg := fmt.Sprintf(
		"route: %s\nrelay: %s\nin: %.6f SOL\nest profit: %.6f SOL",
		trade.RouteID, trade.Relay, trade.AmountInUI, trade.EstProfitUI,
	)
	if trade.Signature != "" {
		msg += "\nsig: " + trade.Signature
	}
	if trade.Error != "" {
		msg += "\nerror: " + trade.Error
	}
	_ = n.Notify(ctx, EventTrade, title, msg)
}

// TokenDiscovered reports a newly admitted token.
func (n *Notifier) TokenDiscovered(ctx context.Context, token domain.Token) {
	msg := fmt.Sprintf("symbol: %s\nmint: %s\ndecimals: %d", token.Symbol, token.Mint, token.Decimals)
	_ = n.Notify(ctx, EventToken, "Token discovered", msg)
}
