package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestDecodeQuotes(t *testing.T) {
	ticks := decodeQuotes([]byte(`{"type":"quote","data":[{"s":"EURUSD","b":1.1,"a":1.1002,"t":1700000000000}]}`))
	if len(ticks) != 1 {
		t.Fatalf("decoded %d ticks", len(ticks))
	}
	if ticks[0].Symbol != "EURUSD" || ticks[0].Ask != 1.1002 || ticks[0].Time.Unix() != 1700000000 {
		t.Fatalf("tick = %+v", ticks[0])
	}
	if got := decodeQuotes([]byte(`{"type":"ping"}`)); len(got) != 0 {
		t.Fatalf("non-quote frame decoded: %+v", got)
	}
	if got := decodeQuotes([]byte(`not json`)); got != nil {
		t.Fatalf("garbage decoded: %+v", got)
	}
}

func TestClient_SubscribeAndRead(t *testing.T) {
	subscribed := make(chan string, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub["symbol"]
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"quote","data":[{"s":"EURUSD","b":1.1,"a":1.1002,"t":1700000000000}]}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New("secret", wsURL, []string{"EURUSD"}, 10*time.Millisecond, time.Second, time.Minute, nil)
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()
	if err := c.Subscribe(ctx); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sym := <-subscribed; sym != "EURUSD" {
		t.Fatalf("subscribed to %q", sym)
	}

	ticks, _ := c.Read(ctx)
	select {
	case tk := <-ticks:
		if tk == nil || tk.Bid != 1.1 {
			t.Fatalf("tick = %+v", tk)
		}
	case <-ctx.Done():
		t.Fatalf("no tick received")
	}
	if !c.IsConnected() {
		t.Fatalf("client reports disconnected")
	}
}
