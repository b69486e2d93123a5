package sse

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	clientBuffer      = 32
	heartbeatInterval = 25 * time.Second
)

// Message is a single server-sent event.
type Message struct {
	Event string
	Data  any
}

// Client is one open event stream. A user may hold several (tabs, devices).
type Client struct {
	ID     string
	UserID string
	Events chan Message
}

// Manager tracks open streams per user and routes events to them.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]map[string]*Client // userID -> socketID -> client
	log     zerolog.Logger
	stop    chan struct{}
	once    sync.Once
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		clients: make(map[string]map[string]*Client),
		log:     log,
		stop:    make(chan struct{}),
	}
}

// Run sends heartbeats until Stop is called.
func (m *Manager) Run() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.broadcastAll(Message{Event: "ping", Data: time.Now().Unix()})
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

// Subscribe registers a new stream for userID. The returned function removes it.
func (m *Manager) Subscribe(userID string) (*Client, func()) {
	cl := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Events: make(chan Message, clientBuffer),
	}

	m.mu.Lock()
	if m.clients[userID] == nil {
		m.clients[userID] = make(map[string]*Client)
	}
	m.clients[userID][cl.ID] = cl
	m.mu.Unlock()

	m.log.Debug().Str("user_id", userID).Str("socket_id", cl.ID).Msg("client connected")

	var once sync.Once
	return cl, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.clients[userID], cl.ID)
			if len(m.clients[userID]) == 0 {
				delete(m.clients, userID)
			}
			m.mu.Unlock()
			m.log.Debug().Str("user_id", userID).Str("socket_id", cl.ID).Msg("client disconnected")
		})
	}
}

// SendToUser delivers an event to every open stream of userID.
func (m *Manager) SendToUser(userID string, eventType string, payload interface{}) {
	m.SendToUserExcept(userID, "", eventType, payload)
}

// SendToUserExcept delivers an event to every stream of userID other than
// exceptSocketID. Slow clients drop events instead of blocking the sender.
func (m *Manager) SendToUserExcept(userID, exceptSocketID, eventType string, payload interface{}) {
	msg := Message{Event: eventType, Data: payload}

	m.mu.RLock()
	targets := make([]*Client, 0, len(m.clients[userID]))
	for id, cl := range m.clients[userID] {
		if exceptSocketID != "" && id == exceptSocketID {
			continue
		}
		targets = append(targets, cl)
	}
	m.mu.RUnlock()

	for _, cl := range targets {
		select {
		case cl.Events <- msg:
		default:
			m.log.Warn().Str("user_id", userID).Str("socket_id", cl.ID).Str("event", eventType).Msg("client buffer full, dropping event")
		}
	}
}

// Connections returns how many streams userID currently holds.
func (m *Manager) Connections(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

func (m *Manager) broadcastAll(msg Message) {
	m.mu.RLock()
	var targets []*Client
	for _, byID := range m.clients {
		for _, cl := range byID {
			targets = append(targets, cl)
		}
	}
	m.mu.RUnlock()

	for _, cl := range targets {
		select {
		case cl.Events <- msg:
		default:
		}
	}
}

// ServeHTTP streams events to the caller until the request context ends. The
// first event carries the socket id clients echo back in X-Socket-ID.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	cl, unsubscribe := m.Subscribe(userID)
	defer unsubscribe()

	c.SSEvent("connected", gin.H{"socket_id": cl.ID})
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case msg := <-cl.Events:
			c.SSEvent(msg.Event, msg.Data)
			c.Writer.Flush()
		}
	}
}
