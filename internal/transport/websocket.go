// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"net/http"
	"sync"

	applog "beewatch/internal/log"

	"github.com/gorilla/websocket"
)

// WebSocketTransport implements the Transport interface for WebSocket
// connections. It serves /ws and, when given, extra handlers such as
// /metrics on the same listener.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	mux       *http.ServeMux
	server    *http.Server
	closed    bool
}

// NewWebSocketTransport creates a WebSocketTransport and starts serving on
// addr. handlers maps extra URL patterns to handlers.
func NewWebSocketTransport(addr string, handlers map[string]http.Handler) *WebSocketTransport {
	wst := newWebSocketTransport(addr, handlers)
	wst.start()
	return wst
}

func newWebSocketTransport(addr string, handlers map[string]http.Handler) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Monitors run on the local network
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
		mux:       http.NewServeMux(),
	}
	wst.mux.HandleFunc("/ws", wst.handleWebSocket)
	for pattern, h := range handlers {
		wst.mux.Handle(pattern, h)
	}
	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler serving all routes.
func (wst *WebSocketTransport) Handler() http.Handler { return wst.mux }

// start begins the HTTP server
func (wst *WebSocketTransport) start() {
	wst.server = &http.Server{
		Addr:    wst.addr,
		Handler: wst.mux,
	}

	go func() {
		applog.Infof("[MON] Starting monitor server on %s", wst.addr)
		if err := wst.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("[MON] Server error: %v", err)
		}
	}()
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("[MON] Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("[MON] Client connected, total: %d", total)

	// Monitors never send; the first read error means the client left.
	go func() {
		if _, _, err := conn.ReadMessage(); err != nil {
			wst.clientsMu.Lock()
			delete(wst.clients, conn)
			total := len(wst.clients)
			wst.clientsMu.Unlock()
			conn.Close()
			applog.Infof("[MON] Client disconnected, total: %d", total)
		}
	}()
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleBroadcasts sends messages to all connected clients
func (wst *WebSocketTransport) handleBroadcasts() {
	var targets []*websocket.Conn
	for data := range wst.broadcast {
		wst.clientsMu.Lock()
		targets = targets[:0]
		for client := range wst.clients {
			targets = append(targets, client)
		}
		wst.clientsMu.Unlock()

		for _, client := range targets {
			if err := client.WriteJSON(data); err != nil {
				applog.Warnf("[MON] Error sending to client: %v", err)
				client.Close()
				wst.clientsMu.Lock()
				delete(wst.clients, client)
				wst.clientsMu.Unlock()
			}
		}
	}
}

// Send queues data for all connected clients. When the queue is full the
// message is dropped so the control loop never waits on a monitor.
func (wst *WebSocketTransport) Send(data any) error {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	if wst.closed {
		return errors.New("websocket transport is closed")
	}
	select {
	case wst.broadcast <- data:
	default:
		applog.Debugf("[MON] Broadcast queue full, dropping message")
	}
	return nil
}

// Close shuts down the WebSocket server
func (wst *WebSocketTransport) Close() error {
	wst.clientsMu.Lock()
	if wst.closed {
		wst.clientsMu.Unlock()
		return nil
	}
	wst.closed = true
	applog.Infof("[MON] Closing monitor server")
	for client := range wst.clients {
		client.Close()
	}
	wst.clients = make(map[*websocket.Conn]bool)
	close(wst.broadcast)
	wst.clientsMu.Unlock()

	if wst.server != nil {
		return wst.server.Close()
	}
	return nil
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
