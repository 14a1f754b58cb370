// Package relay submits signed transactions through the Jito block engine
// instead of the public RPC path.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

// JitoClient sends transactions to a Jito block-engine endpoint using the
// sendTransaction JSON-RPC method. Bundles are not used; the tip travels
// inside the transaction itself.
type JitoClient struct {
	url        string
	httpClient *http.Client
}

// NewJitoClient creates a client for the given block-engine URL, e.g.
// "https://mainnet.block-engine.jito.wtf/api/v1/transactions".
func NewJitoClient(url string) *JitoClient {
	return &JitoClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Send submits a signed transaction. The returned signature is the
// transaction's own first signature as echoed by the relay.
func (c *JitoClient) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	encoded, err := tx.ToBase64()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("relay: encode transaction: %w", err)
	}

	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendTransaction",
		Params: []any{
			encoded,
			map[string]string{"encoding": "base64"},
		},
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("relay: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("relay: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("relay: %w: %v", domain.ErrSendFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("relay: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return solana.Signature{}, fmt.Errorf("relay: %w: %w", domain.ErrSendFailed, domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return solana.Signature{}, fmt.Errorf("relay: %w: status %d: %s", domain.ErrSendFailed, resp.StatusCode, body)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return solana.Signature{}, fmt.Errorf("relay: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return solana.Signature{}, fmt.Errorf("relay: %w: %s (code %d)", domain.ErrSendFailed, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	sig, err := solana.SignatureFromBase58(rpcResp.Result)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("relay: parse signature %q: %w", rpcResp.Result, err)
	}
	return sig, nil
}
