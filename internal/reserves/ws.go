package reserves

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"

	"github.com/quantfold/dexarb/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// subRequest is the JSON-RPC accountSubscribe frame.
type subRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// wsFrame is the union of everything the node sends back: subscription
// acks (Result set, no Method) and account notifications.
type wsFrame struct {
	ID     int64            `json:"id"`
	Result *json.RawMessage `json:"result"`
	Method string           `json:"method"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Params *struct {
		Subscription int64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Owner string `json:"owner"`
				Data  struct {
					Parsed struct {
						Info struct {
							Mint        string `json:"mint"`
							Owner       string `json:"owner"`
							TokenAmount struct {
								Amount   string  `json:"amount"`
								UIAmount float64 `json:"uiAmount"`
								Decimals uint8   `json:"decimals"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// stream is one websocket session subscribed to a set of token accounts.
// All reads happen from a single goroutine so update order is preserved.
// Writes come from the subscriber, the ping loop, and close, so they
// share a mutex; gorilla/websocket allows only one concurrent writer.
type stream struct {
	conn      *websocket.Conn
	nextID    int64
	writeMu   sync.Mutex
	closeOnce sync.Once
	// pending maps request IDs to accounts awaiting their ack.
	pending map[int64]solana.PublicKey
	// subs maps server subscription IDs to accounts.
	subs map[int64]solana.PublicKey
	done chan struct{}
}

// dialStream connects to the RPC websocket endpoint.
func dialStream(ctx context.Context, wsURL string) (*stream, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("reserves: connect %s: %w", wsURL, err)
	}

	s := &stream{
		conn:    conn,
		pending: make(map[int64]solana.PublicKey),
		subs:    make(map[int64]solana.PublicKey),
		done:    make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go s.pingLoop()

	return s, nil
}

// subscribe sends an accountSubscribe for one token account. The ack is
// consumed later by the read loop.
func (s *stream) subscribe(account solana.PublicKey, commitment string) error {
	s.nextID++
	req := subRequest{
		JSONRPC: "2.0",
		ID:      s.nextID,
		Method:  "accountSubscribe",
		Params: []any{
			account.String(),
			map[string]string{
				"encoding":   "jsonParsed",
				"commitment": commitment,
			},
		},
	}

	if err := s.write(websocket.TextMessage, req); err != nil {
		return fmt.Errorf("reserves: subscribe %s: %w", account, err)
	}
	s.pending[req.ID] = account
	return nil
}

// write serializes all frame writes. JSON payloads pass v, control frames
// pass raw bytes.
func (s *stream) write(messageType int, v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if messageType == websocket.TextMessage {
		return s.conn.WriteJSON(v)
	}
	data, _ := v.([]byte)
	return s.conn.WriteMessage(messageType, data)
}

// next blocks until the next account update arrives, consuming acks along
// the way. It returns domain.ErrWSDisconnect wrapped around read failures.
func (s *stream) next() (domain.AccountUpdate, error) {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return domain.AccountUpdate{}, fmt.Errorf("reserves: read: %v: %w", err, domain.ErrWSDisconnect)
		}

		var frame wsFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		// Subscription ack: bind the server's subscription ID.
		if frame.Method == "" && frame.ID != 0 {
			account, ok := s.pending[frame.ID]
			if !ok {
				continue
			}
			delete(s.pending, frame.ID)
			if frame.Error != nil {
				return domain.AccountUpdate{}, fmt.Errorf("reserves: subscribe %s rejected: %s", account, frame.Error.Message)
			}
			if frame.Result != nil {
				var subID int64
				if err := json.Unmarshal(*frame.Result, &subID); err == nil {
					s.subs[subID] = account
				}
			}
			continue
		}

		if frame.Method != "accountNotification" || frame.Params == nil {
			continue
		}
		account, ok := s.subs[frame.Params.Subscription]
		if !ok {
			continue
		}

		info := frame.Params.Result.Value.Data.Parsed.Info
		amount, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		mint, err := solana.PublicKeyFromBase58(info.Mint)
		if err != nil {
			continue
		}
		owner, _ := solana.PublicKeyFromBase58(info.Owner)

		return domain.AccountUpdate{
			Account:    account,
			Mint:       mint,
			Owner:      owner,
			Amount:     amount,
			UIAmount:   info.TokenAmount.UIAmount,
			Decimals:   info.TokenAmount.Decimals,
			Slot:       frame.Params.Result.Context.Slot,
			ReceivedAt: time.Now(),
		}, nil
	}
}

func (s *stream) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close is idempotent; the synchronizer and its watcher both call it.
func (s *stream) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.write(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		_ = s.conn.Close()
	})
}
