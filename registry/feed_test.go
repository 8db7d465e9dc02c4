package registry

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestFeed_BroadcastsReplaceEventsToConnectedClients(t *testing.T) {
	feed := NewFeed()
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the server goroutine a moment to register the connection.
	deadline := time.Now().Add(time.Second)
	for {
		feed.mu.Lock()
		n := len(feed.clients)
		feed.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for client registration")
		}
		time.Sleep(time.Millisecond)
	}

	ref := TileRef{}
	feed.Broadcast(3, 4, ref)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var evt ReplaceEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if evt.TileX != 3 || evt.TileY != 4 {
		t.Fatalf("event = %+v, want tile (3,4)", evt)
	}
}

func TestFeed_BroadcastWithNoClientsIsANoop(t *testing.T) {
	feed := NewFeed()
	feed.Broadcast(0, 0, TileRef{})
}

func TestRegistry_FeedReceivesOnReplaceEvents(t *testing.T) {
	feed := NewFeed()
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	r := New(feed.Broadcast)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for {
		feed.mu.Lock()
		n := len(feed.clients)
		feed.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for client registration")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := r.Replace(7, 8, samplePayload(7, 8)); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var evt ReplaceEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if evt.TileX != 7 || evt.TileY != 8 {
		t.Fatalf("event = %+v, want tile (7,8)", evt)
	}
}
