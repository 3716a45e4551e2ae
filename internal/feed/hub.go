// Package feed streams chart frames to renderers over WebSocket and accepts
// playback commands from them.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"astrolabe.space/chart"
	"astrolabe.space/ephemeris"
	"astrolabe.space/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxCommandSize = 4096
)

// ErrUnknownCommand is reported to a renderer that sends an unrecognised op.
var ErrUnknownCommand = errors.New("feed: unknown command")

// Controller is the playback surface renderers can drive.
type Controller interface {
	Play()
	Pause()
	SetSpeed(speed float64) error
	Reset()
	Natal()
	Seek(t time.Time)
	SetObserver(obs ephemeris.Observer) error
	SetEpoch(epoch time.Time)
	SetBirth(epoch time.Time, obs ephemeris.Observer) error
}

// Command is a message from a renderer. Op is one of play, pause, speed,
// reset, natal, seek, observer, epoch or birth.
type Command struct {
	Op       string              `json:"op"`
	Speed    float64             `json:"speed,omitempty"`
	At       *time.Time          `json:"at,omitempty"`
	Observer *ephemeris.Observer `json:"observer,omitempty"`
}

type Config struct {
	ClientFPS   float64
	ClientBurst int
	SendBuffer  int
}

type outbound struct {
	data  []byte
	frame bool
}

type client struct {
	key  string
	conn *websocket.Conn
	send chan outbound
	done chan struct{}
}

// Hub fans frames out to every connected renderer. Each renderer has its
// own frame budget; one that cannot keep up with its send buffer is
// disconnected.
type Hub struct {
	logger     zerolog.Logger
	metrics    *metrics.Collector
	control    Controller
	limits     *ClientLimiter
	sendBuffer int
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

// NewHub creates a hub. m and control may be nil; without a controller
// commands are rejected.
func NewHub(cfg Config, logger zerolog.Logger, m *metrics.Collector, control Controller) *Hub {
	if cfg.ClientFPS <= 0 {
		cfg.ClientFPS = 30
	}
	if cfg.ClientBurst < 1 {
		cfg.ClientBurst = 1
	}
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = 16
	}

	return &Hub{
		logger:     logger,
		metrics:    m,
		control:    control,
		limits:     NewClientLimiter(rate.Limit(cfg.ClientFPS), cfg.ClientBurst),
		sendBuffer: cfg.SendBuffer,
		upgrader: websocket.Upgrader{
			// Renderers are served from other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected renderers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements chart.Sink.
func (h *Hub) Publish(c chart.Chart) error {
	data, err := json.Marshal(NewFrame(c))
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	h.mu.Lock()
	h.last = data
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		if !h.limits.GetLimiter(cl.key).Allow() {
			h.metrics.FrameDropped()
			continue
		}
		select {
		case cl.send <- outbound{data: data, frame: true}:
		default:
			h.metrics.FrameDropped()
			h.logger.Warn().Str("client", cl.key).Msg("renderer too slow, disconnecting")
			h.remove(cl)
		}
	}
	return nil
}

// ServeHTTP upgrades the request and serves the renderer until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	cl := &client{
		key:  r.RemoteAddr,
		conn: conn,
		send: make(chan outbound, h.sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.clients[cl] = struct{}{}
	last := h.last
	h.mu.Unlock()

	h.metrics.ClientConnected()
	h.logger.Info().Str("client", cl.key).Msg("renderer connected")

	if last != nil {
		select {
		case cl.send <- outbound{data: last, frame: true}:
		default:
		}
	}

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) readPump(cl *client) {
	defer h.remove(cl)

	cl.conn.SetReadLimit(maxCommandSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("client", cl.key).Msg("renderer connection lost")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			h.reply(cl, fmt.Errorf("decode command: %w", err))
			continue
		}
		if err := h.apply(cmd); err != nil {
			h.logger.Debug().Err(err).Str("client", cl.key).Str("op", cmd.Op).Msg("command rejected")
			h.reply(cl, err)
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				h.remove(cl)
				return
			}
			if msg.frame {
				h.metrics.FrameSent()
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(cl)
				return
			}
		}
	}
}

func (h *Hub) apply(cmd Command) error {
	if h.control == nil {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
	}

	switch cmd.Op {
	case "play":
		h.control.Play()
	case "pause":
		h.control.Pause()
	case "speed":
		return h.control.SetSpeed(cmd.Speed)
	case "reset":
		h.control.Reset()
	case "natal":
		h.control.Natal()
	case "seek":
		if cmd.At == nil {
			return errors.New("seek: missing at")
		}
		h.control.Seek(*cmd.At)
	case "observer":
		if cmd.Observer == nil {
			return errors.New("observer: missing observer")
		}
		return h.control.SetObserver(*cmd.Observer)
	case "epoch":
		if cmd.At == nil {
			return errors.New("epoch: missing at")
		}
		h.control.SetEpoch(*cmd.At)
	case "birth":
		if cmd.At == nil {
			return errors.New("birth: missing at")
		}
		if cmd.Observer == nil {
			return errors.New("birth: missing observer")
		}
		return h.control.SetBirth(*cmd.At, *cmd.Observer)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Op)
	}
	return nil
}

func (h *Hub) reply(cl *client, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	select {
	case cl.send <- outbound{data: data}:
	default:
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	delete(h.clients, cl)
	h.mu.Unlock()
	if !ok {
		return
	}

	close(cl.done)
	cl.conn.Close()
	h.limits.Forget(cl.key)
	h.metrics.ClientDisconnected()
	h.logger.Info().Str("client", cl.key).Msg("renderer disconnected")
}

// Close disconnects every renderer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		_ = cl.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		h.remove(cl)
	}
}
