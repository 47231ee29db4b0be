package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campusnet/monitoring"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// envelope is the wire format for pushed events.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one websocket connection. It satisfies Channel; writes go through
// a buffered send channel drained by a single writer goroutine.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

func (c *Client) ID() string {
	return c.id
}

// Push queues an event for delivery. It never blocks: a client that cannot
// keep up with its send buffer loses the event, which is acceptable because
// every notification is durably persisted before it is pushed.
func (c *Client) Push(event string, payload any) error {
	raw, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return fmt.Errorf("channel %s is closed", c.id)
	case c.send <- raw:
		return nil
	default:
		return fmt.Errorf("channel %s send buffer full", c.id)
	}
}

// Hub upgrades HTTP requests to websocket connections and keeps the presence
// registry in sync with connect/disconnect lifecycle.
type Hub struct {
	registry *Registry
}

func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

// Serve upgrades the request and registers the connection for userID. It
// blocks until the connection goes away. The caller resolves userID before
// handing the request over.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Error upgrading websocket for user %s: %v", userID, err)
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	h.registry.Register(userID, client)
	monitoring.WebsocketConnections.Inc()

	go client.writePump()
	client.readPump()

	h.registry.Unregister(client)
	monitoring.WebsocketConnections.Dec()
	close(client.done)
}

// writePump is the single writer for the connection. The send channel is
// never closed; shutdown is signalled through done so a concurrent Push can
// never hit a closed channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames until the connection drops. Clients do not
// send application data over the socket; it exists for server pushes.
func (c *Client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Infof("Websocket closed unexpectedly for user %s: %v", c.userID, err)
			}
			return
		}
	}
}
