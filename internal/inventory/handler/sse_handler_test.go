package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/partsdesk/internal/inventory/sse"
	"github.com/bitfantasy/partsdesk/internal/inventory/testutil"
	"github.com/bitfantasy/partsdesk/internal/middleware"
	"go.uber.org/zap"
)

// readEvent 读取下一条事件，跳过 keepalive 注释
func readEvent(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	fields := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			if len(fields) > 0 {
				return fields
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if k, v, ok := strings.Cut(line, ": "); ok {
			fields[k] = v
		}
	}
}

func TestSSEStreamFiltersEvents(t *testing.T) {
	hub := sse.NewHub(zap.NewNop())
	router := testutil.SetupRouter()
	router.GET("/api/v1/sse/events", middleware.JWTAuth(testutil.JWTSecret), NewSSEHandler(hub).Stream)
	srv := httptest.NewServer(router)
	defer srv.Close()

	token := testutil.ClerkToken()

	resp, err := http.Get(srv.URL + "/api/v1/sse/events?events=weather&token=" + token)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown event, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/sse/events?events=stock_low&token="+token, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	hello := readEvent(t, reader)
	if hello["event"] != sse.EventConnected || !strings.Contains(hello["data"], `"events":["stock_low"]`) {
		t.Fatalf("unexpected connected event %v", hello)
	}

	// 客户端在发送 connected 之前已注册
	hub.PublishSaleCreated("s1", "m1", 20, 1)
	hub.PublishStockLow("p1", "Glass", "Clear", 1, 5)

	ev := readEvent(t, reader)
	if ev["event"] != sse.EventStockLow || !strings.Contains(ev["data"], `"part_id":"p1"`) {
		t.Fatalf("expected only the stock_low event, got %v", ev)
	}
	if ev["id"] != "2" {
		t.Errorf("expected event id 2 after the filtered sale event, got %q", ev["id"])
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("client must be unregistered after disconnect")
	}
}
