package txn

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/liquidity"
	"github.com/quantfold/dexarb/internal/signer"
)

// Relay submits a signed transaction through an external relay.
type Relay interface {
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Notifier receives dispatched-trade events. Nil disables notifications.
type Notifier interface {
	TradeDispatched(ctx context.Context, trade domain.Trade)
}

// Dispatcher builds, signs, submits, and records trades.
type Dispatcher struct {
	builder  *Builder
	chain    *chain.Client
	relay    Relay
	wallet   *signer.Wallet
	trades   domain.TradeStore
	notifier Notifier
	jito     config.JitoConfig
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. relay may be nil when Jito is
// disabled; notifier may be nil.
func NewDispatcher(
	builder *Builder,
	chainClient *chain.Client,
	relay Relay,
	wallet *signer.Wallet,
	trades domain.TradeStore,
	notifier Notifier,
	jito config.JitoConfig,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		builder:  builder,
		chain:    chainClient,
		relay:    relay,
		wallet:   wallet,
		trades:   trades,
		notifier: notifier,
		jito:     jito,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch assembles and submits the transaction for one opportunity and
// records the outcome. Build failures abort before anything is sent;
// submission failures are recorded as send_failed trades.
func (d *Dispatcher) Dispatch(ctx context.Context, state *liquidity.RouteState, opp domain.Opportunity) error {
	tx, err := d.builder.Build(ctx, state, opp)
	if err != nil {
		return err
	}
	if err := d.wallet.Sign(tx); err != nil {
		return fmt.Errorf("txn: %w: %v", domain.ErrSigningFailed, err)
	}

	relayName := "rpc"
	useRelay := d.jito.Enabled && d.relay != nil
	if useRelay {
		relayName = "jito"
	}

	var sig solana.Signature
	if useRelay {
		sig, err = d.relay.Send(ctx, tx)
	} else {
		sig, err = d.chain.SendTransaction(ctx, tx)
	}

	trade := domain.Trade{
		OpportunityID: opp.ID,
		RouteID:       opp.RouteID,
		Signature:     sig.String(),
		Outcome:       domain.OutcomeSent,
		Relay:         relayName,
		AmountInUI:    float64(opp.Buy.AmountIn) / math.Pow10(9),
		EstProfitUI:   opp.EstProfitUI,
		DispatchedAt:  time.Now().UTC(),
	}
	if useRelay {
		trade.TipLamports = d.jito.TipLamports
	}
	if err != nil {
		trade.Outcome = domain.OutcomeSendFailed
		trade.Signature = ""
		trade.Error = err.Error()
	}

	if insertErr := d.trades.Insert(ctx, trade); insertErr != nil {
		d.logger.ErrorContext(ctx, "dispatcher: trade record failed",
			slog.String("opportunity", opp.ID),
			slog.String("error", insertErr.Error()),
		)
	}
	if d.notifier != nil {
		d.notifier.TradeDispatched(ctx, trade)
	}

	if err != nil {
		return fmt.Errorf("txn: %w via %s: %v", domain.ErrSendFailed, relayName, err)
	}

	d.logger.InfoContext(ctx, "dispatcher: trade sent",
		slog.String("route", opp.RouteID),
		slog.String("opportunity", opp.ID),
		slog.String("signature", sig.String()),
		slog.String("relay", relayName),
		slog.Float64("est_profit", opp.EstProfitUI),
	)
	return nil
}
