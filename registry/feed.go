// Feed broadcasts tile-replacement events to connected observers over
// a websocket, in the style of
// voxelcraft.ai/internal/transport/observer.Server.
package registry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReplaceEvent is broadcast once per successful Registry.Replace.
type ReplaceEvent struct {
	TileX   int    `json:"tile_x"`
	TileY   int    `json:"tile_y"`
	TileRef string `json:"tile_ref"`
}

// Feed fans out ReplaceEvent notifications to every connected
// websocket client. Attach it via NewFeed then pass Feed.Broadcast as
// a Registry's onReplace hook.
type Feed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewFeed builds an empty Feed.
func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[*websocket.Conn]struct{}{},
	}
}

// Handler upgrades an HTTP request to a websocket and registers the
// connection as a broadcast target until it disconnects.
func (f *Feed) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.clients[conn] = struct{}{}
		f.mu.Unlock()

		go f.drainUntilClosed(conn)
	}
}

// drainUntilClosed discards any client-sent frames (this feed is
// write-only) and deregisters the connection once the peer closes it.
func (f *Feed) drainUntilClosed(conn *websocket.Conn) {
	defer func() {
		f.mu.Lock()
		delete(f.clients, conn)
		f.mu.Unlock()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast matches the signature Registry.onReplace expects.
func (f *Feed) Broadcast(tileX, tileY int, ref TileRef) {
	evt := ReplaceEvent{TileX: tileX, TileY: tileY, TileRef: ref.String()}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = conn.Close()
			delete(f.clients, conn)
		}
	}
}
