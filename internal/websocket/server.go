// internal/websocket/server.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // localhost-only server, auth key gates connections
	},
}

// Server exposes the App over a localhost websocket for headless mode.
// Connections must present the one-time auth key printed at startup.
type Server struct {
	router   *Router
	authKey  string
	listener net.Listener
	httpSrv  *http.Server

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan WSMessage
}

// NewServer creates a server routing RPC calls to the app's methods.
func NewServer(app interface{}) *Server {
	return &Server{
		router:  NewRouter(app),
		authKey: uuid.New().String(),
		clients: make(map[string]*client),
	}
}

// AuthKey returns the key clients must present as ?key=.
func (s *Server) AuthKey() string {
	return s.authKey
}

// Start listens on an ephemeral localhost port and returns it.
func (s *Server) Start(ctx context.Context) (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("listen: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Handler: mux}

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("websocket server: %v", err)
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port, nil
}

// Stop closes all connections and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for _, c := range s.clients {
		close(c.send)
		c.conn.Close()
	}
	s.clients = make(map[string]*client)
	s.mu.Unlock()

	if s.httpSrv != nil {
		return s.httpSrv.Shutdown(ctx)
	}
	return nil
}

// BroadcastEvent pushes an event to every connected client. Implements
// eventhub.Broadcaster.
func (s *Server) BroadcastEvent(eventType string, payload interface{}) {
	message := WSMessage{
		Kind:  "event",
		Event: &WSEvent{Type: eventType, Payload: payload},
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.send <- message:
		default:
			// Slow client; drop the event rather than block the app.
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") != s.authKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan WSMessage, 64),
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[c.id]; ok {
			delete(s.clients, c.id)
			close(c.send)
		}
		s.mu.Unlock()
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var message WSMessage
		if err := json.Unmarshal(data, &message); err != nil || message.Kind != "rpc_request" || message.Request == nil {
			continue
		}

		response := RPCResponse{ID: message.Request.ID}
		result, err := s.router.Call(message.Request.Method, message.Request.Params)
		if err != nil {
			response.Error = err.Error()
		} else {
			response.Result = result
		}

		select {
		case c.send <- WSMessage{Kind: "rpc_response", Response: &response}:
		default:
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for message := range c.send {
		if err := c.conn.WriteJSON(message); err != nil {
			return
		}
	}
}
