package reserves

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// wsServer accepts one websocket upgrade and drains frames until the
// client disconnects.
func wsServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	srv := wsServer(t)
	defer srv.Close()

	s, err := dialStream(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// The synchronizer's deferred cleanup and its reload watcher can both
	// reach close; the second call must be a no-op.
	s.close()
	s.close()
}

func TestStreamSerializesConcurrentWrites(t *testing.T) {
	srv := wsServer(t)
	defer srv.Close()

	s, err := dialStream(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.close()

	// Subscribe frames, pings, and close frames all go through write;
	// interleaving them from separate goroutines must never trip the
	// connection's single-writer check.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.write(websocket.PingMessage, nil)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.write(websocket.TextMessage, subRequest{JSONRPC: "2.0", Method: "accountSubscribe"})
			}
		}()
	}
	wg.Wait()
}
