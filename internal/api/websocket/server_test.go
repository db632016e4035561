package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fortuna/matchday/internal/store"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastResolution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewServer(zerolog.Nop())
	s.Start(ctx)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleResolutions))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return s.ClientCount() == 1 })

	s.BroadcastResolution(store.Resolution{HomeName: "Kocaelispor", AwayName: "Antalyaspor", Source: "directory"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Type       string           `json:"type"`
		Resolution store.Resolution `json:"resolution"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "fixture.resolved" || got.Resolution.HomeName != "Kocaelispor" {
		t.Errorf("got %+v", got)
	}

	conn.Close()
	waitFor(t, func() bool { return s.ClientCount() == 0 })
}
