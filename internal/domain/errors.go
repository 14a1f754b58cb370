package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrRateLimited      = errors.New("rate limited")
	ErrStaleReserves    = errors.New("reserve state too old")
	ErrNoLiquidity      = errors.New("no liquidity in range")
	ErrProgramMismatch  = errors.New("account owner is not the expected program")
	ErrRouteSkipped     = errors.New("route is permanently skipped")
	ErrUnprofitable     = errors.New("opportunity below profit threshold")
	ErrSendFailed       = errors.New("transaction send failed")
	ErrNoBlockhash      = errors.New("no recent blockhash available")
	ErrSigningFailed    = errors.New("signing failed")
	ErrWSDisconnect     = errors.New("websocket disconnected")
	ErrContextDone      = errors.New("context cancelled")
	ErrLockHeld         = errors.New("lock already held")
)
