package domain

import "time"

// TradeOutcome classifies what happened to a dispatched transaction.
// OutcomeSendFailed means the relay or RPC rejected the submission; it is
// distinct from a transaction that landed and reverted.
type TradeOutcome string

const (
	OutcomeSent       TradeOutcome = "sent"
	OutcomeSendFailed TradeOutcome = "send_failed"
)

// Trade is the persisted record of one dispatched opportunity.
type Trade struct {
	ID            int64
	OpportunityID string
	RouteID       string
	Signature     string
	Outcome       TradeOutcome
	Relay         string // "jito" or "rpc"
	AmountInUI    float64
	EstProfitUI   float64
	TipLamports   uint64
	Error         string
	DispatchedAt  time.Time
}
