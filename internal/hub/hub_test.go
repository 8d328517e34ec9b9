package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func TestBroadcastToClientsRespectsSiteSubscription(t *testing.T) {
	h := New("token")

	clientA := &Client{
		id:            "a",
		send:          make(chan []byte, 1),
		subscribeAll:  false,
		subscriptions: map[string]struct{}{"example.com": {}},
	}
	clientB := &Client{
		id:            "b",
		send:          make(chan []byte, 1),
		subscribeAll:  false,
		subscriptions: map[string]struct{}{"other.io": {}},
	}
	clientAll := &Client{
		id:            "all",
		send:          make(chan []byte, 1),
		subscribeAll:  true,
		subscriptions: map[string]struct{}{},
	}

	h.clients = map[string]*Client{
		clientA.id:   clientA,
		clientB.id:   clientB,
		clientAll.id: clientAll,
	}

	h.broadcastToClients(hubBroadcast{data: []byte(`{"type":"tool_activity"}`), siteURL: "example.com"})

	select {
	case <-clientA.send:
	default:
		t.Fatal("expected clientA to receive message for example.com")
	}
	select {
	case <-clientAll.send:
	default:
		t.Fatal("expected subscribe-all client to receive message")
	}
	select {
	case <-clientB.send:
		t.Fatal("did not expect clientB to receive message for example.com")
	default:
	}
}

func TestTokenAuthentication(t *testing.T) {
	validToken := "secret-token-123"

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"valid token", validToken, http.StatusSwitchingProtocols},
		{"invalid token", "wrong-token", http.StatusUnauthorized},
		{"missing token", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(validToken)

			ctx, cancel := context.WithCancel(context.Background())
			go h.Run(ctx)
			defer cancel()

			server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
			defer server.Close()

			url := fmt.Sprintf("ws://%s/ws", server.URL[7:])
			if tt.token != "" {
				url = fmt.Sprintf("%s?token=%s", url, tt.token)
			}

			dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
			conn, resp, err := websocket.Dial(dialCtx, url, nil)
			dialCancel()

			if resp != nil && resp.StatusCode != tt.wantStatus {
				t.Errorf("status code mismatch: got %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusSwitchingProtocols {
				if err != nil {
					t.Fatalf("expected successful connection, got error: %v", err)
				}
				conn.Close(websocket.StatusNormalClosure, "")
			} else if conn != nil {
				conn.Close(websocket.StatusNormalClosure, "")
			}
		})
	}
}

func TestInitialSnapshotMessage(t *testing.T) {
	token := "test-token"
	h := New(token)
	h.BroadcastActivity(ActivityMessage{ID: "act-1", Capability: "SITE_get_status", Success: true, Ts: 1})

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	defer cancel()

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	url := fmt.Sprintf("ws://%s/ws?token=%s", server.URL[7:], token)
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	dialCancel()
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	readCtx, readCancel := context.WithTimeout(context.Background(), 1*time.Second)
	_, data, err := conn.Read(readCtx)
	readCancel()
	if err != nil {
		t.Fatalf("failed to receive snapshot: %v", err)
	}

	var msg SnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if msg.Type != "activity_snapshot" {
		t.Errorf("expected snapshot message, got type: %s", msg.Type)
	}
	if len(msg.List) != 1 || msg.List[0].ID != "act-1" {
		t.Errorf("snapshot list = %v", msg.List)
	}
}

func TestBroadcastFanOut(t *testing.T) {
	token := "test-token"
	h := New(token)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	defer cancel()

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	url := fmt.Sprintf("ws://%s/ws?token=%s", server.URL[7:], token)

	var clients []*websocket.Conn
	for i := 0; i < 2; i++ {
		dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
		conn, _, err := websocket.Dial(dialCtx, url, nil)
		dialCancel()
		if err != nil {
			t.Fatalf("failed to connect client %d: %v", i, err)
		}
		clients = append(clients, conn)
	}

	waitForClientCount(t, h, 2, 1*time.Second)

	h.SetBatchEnabled(false)
	h.BroadcastActivity(ActivityMessage{
		ID:         "act-1",
		Capability: "GSC_sync_data",
		Success:    true,
		SiteURL:    "example.com",
		Ts:         time.Now().Unix(),
	})

	for i, conn := range clients {
		readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, data, err := conn.Read(readCtx)
		readCancel()
		if err != nil {
			t.Fatalf("client %d failed to receive snapshot: %v", i, err)
		}

		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			t.Fatalf("client %d failed to unmarshal: %v", i, err)
		}
		if base.Type != "activity_snapshot" {
			t.Fatalf("client %d expected snapshot first, got type: %s", i, base.Type)
		}

		readCtx, readCancel = context.WithTimeout(context.Background(), 2*time.Second)
		_, data, err = conn.Read(readCtx)
		readCancel()
		if err != nil {
			t.Fatalf("client %d failed to receive activity: %v", i, err)
		}

		var msg ActivityMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("client %d failed to unmarshal: %v", i, err)
		}
		if msg.Capability != "GSC_sync_data" || msg.Type != "tool_activity" {
			t.Errorf("client %d received wrong message: %+v", i, msg)
		}
	}

	for _, conn := range clients {
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func TestBatchingCoalescesPerSite(t *testing.T) {
	token := "test-token"
	h := New(token)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	defer cancel()

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	url := fmt.Sprintf("ws://%s/ws?token=%s", server.URL[7:], token)
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	dialCancel()
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForClientCount(t, h, 1, 1*time.Second)

	readCtx, readCancel := context.WithTimeout(context.Background(), 1*time.Second)
	_, _, err = conn.Read(readCtx)
	readCancel()
	if err != nil {
		t.Fatalf("failed to receive snapshot: %v", err)
	}

	h.SetBatchEnabled(true)
	for i := 0; i < 3; i++ {
		h.BroadcastActivity(ActivityMessage{
			ID:         fmt.Sprintf("act-%d", i),
			Capability: "SEO_analyze_page",
			Success:    true,
			SiteURL:    "example.com",
			Ts:         time.Now().Unix(),
		})
	}

	time.Sleep(200 * time.Millisecond)

	readCtx, readCancel = context.WithTimeout(context.Background(), 2*time.Second)
	_, data, err := conn.Read(readCtx)
	readCancel()
	if err != nil {
		t.Fatalf("failed to receive batch: %v", err)
	}

	var msg BatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if msg.Type != "activity_batch" || len(msg.Items) != 3 {
		t.Errorf("batch = %+v", msg)
	}
}

func TestBatcherDirect(t *testing.T) {
	var received []BatchMessage
	var mu sync.Mutex

	batcher := NewBatcher(50*time.Millisecond, func(siteURL string, msg BatchMessage) {
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
	})

	for i := 0; i < 3; i++ {
		batcher.Add(ActivityMessage{ID: fmt.Sprintf("act-%d", i), SiteURL: "example.com", Ts: int64(i + 1)})
	}
	batcher.Add(ActivityMessage{ID: "other", SiteURL: "other.io", Ts: 9})

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("expected 2 batches (one per site), got %d", len(received))
	}
	for _, batch := range received {
		if batch.SiteURL == "example.com" && len(batch.Items) != 3 {
			t.Errorf("example.com batch = %+v", batch)
		}
		if batch.SiteURL == "other.io" && len(batch.Items) != 1 {
			t.Errorf("other.io batch = %+v", batch)
		}
	}
}

func TestRememberKeepsBoundedRecentList(t *testing.T) {
	h := New("token")
	for i := 0; i < recentActivityLimit+10; i++ {
		h.remember(ActivityMessage{ID: fmt.Sprintf("act-%d", i)})
	}
	h.recentMu.RLock()
	defer h.recentMu.RUnlock()
	if len(h.recent) != recentActivityLimit {
		t.Fatalf("recent = %d, want %d", len(h.recent), recentActivityLimit)
	}
	if h.recent[0].ID != "act-10" {
		t.Fatalf("oldest retained = %s, want act-10", h.recent[0].ID)
	}
}

func TestShutdownClosesClients(t *testing.T) {
	token := "test-token"
	h := New(token)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	url := fmt.Sprintf("ws://%s/ws?token=%s", server.URL[7:], token)

	numClients := 10
	var conns []*websocket.Conn
	for i := 0; i < numClients; i++ {
		dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
		conn, _, err := websocket.Dial(dialCtx, url, nil)
		dialCancel()
		if err != nil {
			t.Fatalf("failed to connect client %d: %v", i, err)
		}
		conns = append(conns, conn)
	}

	waitForClientCount(t, h, numClients, 2*time.Second)

	cancel()
	time.Sleep(200 * time.Millisecond)

	if h.ClientCount() != 0 {
		t.Errorf("expected 0 clients after shutdown, got %d", h.ClientCount())
	}

	for _, conn := range conns {
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func waitForClientCount(t *testing.T, h *Hub, expected int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.ClientCount() == expected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if h.ClientCount() != expected {
		t.Errorf("expected %d clients, got %d", expected, h.ClientCount())
	}
}
