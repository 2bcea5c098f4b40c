package hostbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"blight/internal/core"
	"blight/internal/session"
	"blight/internal/structures"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Config tunes the hub.
type Config struct {
	// TickInterval is the wall-clock period of one session tick.
	TickInterval time.Duration
	// CommandBuffer bounds the commands staged between ticks.
	CommandBuffer int
	Logger        *slog.Logger
}

// DefaultConfig returns a 30 Hz hub.
func DefaultConfig() Config {
	return Config{TickInterval: time.Second / 30, CommandBuffer: 64}
}

// ErrBusy reports a command dropped because the queue was full.
var ErrBusy = errors.New("hostbridge: command queue full")

type inbound struct {
	cmd  Command
	from *subscriber
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// write sends a frame guarded by the subscriber's mutex and write deadline.
func (s *subscriber) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// Hub owns a session on a single goroutine and fans its output out to
// websocket subscribers. Network handlers never touch the session; they
// stage commands for Run.
type Hub struct {
	cfg      Config
	log      *slog.Logger
	sess     *session.Session
	upgrader websocket.Upgrader

	commands chan inbound

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	hello       Hello
	texture     []byte
}

// NewHub wraps sess. The caller keeps ownership of sess and closes it
// after Run returns.
func NewHub(sess *session.Session, cfg Config) *Hub {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultConfig().CommandBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	size := sess.Size()
	return &Hub{
		cfg:  cfg,
		log:  cfg.Logger.With("component", "hostbridge"),
		sess: sess,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		commands:    make(chan inbound, cfg.CommandBuffer),
		subscribers: make(map[*subscriber]struct{}),
		hello:       Hello{Width: size.W, Height: size.H, Generation: sess.Generation()},
		texture:     append([]byte(nil), sess.Texture()...),
	}
}

// Run ticks the session until ctx is done, applying staged commands
// before each tick.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()
	dt := h.cfg.TickInterval.Seconds()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case <-ticker.C:
			h.drainCommands()
			h.tick(dt)
		}
	}
}

func (h *Hub) drainCommands() {
	for {
		select {
		case in := <-h.commands:
			h.apply(in)
		default:
			return
		}
	}
}

func (h *Hub) tick(dt float64) {
	res := h.sess.Tick(dt)
	frame := h.sess.Frame()
	if res.Terrain != nil {
		h.mu.Lock()
		h.texture = append(h.texture[:0], res.Terrain.Cells...)
		h.hello.Generation = res.Terrain.Generation
		h.mu.Unlock()
		h.broadcastBinary(res.Terrain.Cells)
	}
	if res.Blight != nil {
		h.broadcast(h.event(EvtBlightUpdated, "", frame, res.Blight))
	}
	if res.Amounts != nil {
		h.broadcast(h.event(EvtAmountsUpdated, "", frame, res.Amounts))
	}
}

// apply runs one command against the session. Results that change the
// world are broadcast; queries and errors go back to the sender only.
func (h *Hub) apply(in inbound) {
	cmd := in.cmd
	frame := h.sess.Frame()
	reply := func(ev []byte) {
		if in.from != nil {
			h.send(in.from, ev)
		}
	}
	fail := func(err error) {
		reply(h.errorEvent(cmd.RequestID, frame, err))
	}

	switch cmd.Type {
	case CmdAddStructure:
		t, err := structures.ParseType(cmd.StructureType)
		if err != nil {
			fail(err)
			return
		}
		pos := core.Vec2{X: cmd.X, Y: cmd.Y}
		res, err := h.sess.AddStructure(session.AddStructure{Position: pos, Type: t, PipeFrom: cmd.PipeFrom})
		if err != nil {
			fail(err)
			return
		}
		h.broadcast(h.event(EvtStructureAdded, cmd.RequestID, frame, StructureAdded{
			AddStructureResult: res,
			StructureType:      t.String(),
			X:                  pos.X,
			Y:                  pos.Y,
		}))
	case CmdRemoveStructure:
		res := h.sess.RemoveStructure(cmd.ID)
		if res == nil {
			fail(fmt.Errorf("%w: %d", session.ErrUnknownStructure, cmd.ID))
			return
		}
		h.broadcast(h.event(EvtStructureRemoved, cmd.RequestID, frame, res))
	case CmdAddPipe:
		p, err := h.sess.AddPipe(cmd.A, cmd.B)
		if err != nil {
			fail(err)
			return
		}
		h.broadcast(h.event(EvtPipeAdded, cmd.RequestID, frame, PipeEvent{ID: p.ID, A: p.A, B: p.B}))
	case CmdRemovePipe:
		if !h.sess.RemovePipe(cmd.ID) {
			fail(fmt.Errorf("hostbridge: unknown pipe %d", cmd.ID))
			return
		}
		h.broadcast(h.event(EvtPipeRemoved, cmd.RequestID, frame, PipeEvent{ID: cmd.ID}))
	case CmdQueryRadius:
		if _, ok := h.sess.Structure(cmd.ID); !ok {
			fail(fmt.Errorf("%w: %d", session.ErrUnknownStructure, cmd.ID))
			return
		}
		res := h.sess.QueryEffectRadius(cmd.ID)
		if res == nil {
			res = &session.QueryResult{AffectedIDs: []int64{}}
		}
		reply(h.event(EvtQueryResult, cmd.RequestID, frame, res))
	default:
		fail(fmt.Errorf("hostbridge: unknown command %q", cmd.Type))
	}
}

func (h *Hub) event(kind, requestID string, frame uint64, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("hostbridge: %s payload does not marshal: %v", kind, err))
	}
	data, err := json.Marshal(Event{Type: kind, RequestID: requestID, Frame: frame, Payload: raw})
	if err != nil {
		panic(fmt.Sprintf("hostbridge: %s event does not marshal: %v", kind, err))
	}
	return data
}

func (h *Hub) errorEvent(requestID string, frame uint64, err error) []byte {
	data, _ := json.Marshal(Event{Type: EvtError, RequestID: requestID, Frame: frame, Error: err.Error()})
	return data
}

// ServeHTTP upgrades the request and streams the session to the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	sub := &subscriber{conn: conn}

	// Hold the subscriber's write lock across registration so no broadcast
	// can overtake the greeting.
	sub.mu.Lock()
	h.mu.Lock()
	hello := h.hello
	texture := append([]byte(nil), h.texture...)
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	err = h.greet(sub, hello, texture)
	sub.mu.Unlock()
	if err != nil {
		h.drop(sub)
		return
	}
	h.log.Info("subscriber connected", "remote", r.RemoteAddr)
	h.readLoop(sub)
}

func (h *Hub) greet(sub *subscriber, hello Hello, texture []byte) error {
	if err := sub.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := sub.conn.WriteMessage(websocket.TextMessage, h.event(EvtHello, "", 0, hello)); err != nil {
		return err
	}
	return sub.conn.WriteMessage(websocket.BinaryMessage, texture)
}

func (h *Hub) readLoop(sub *subscriber) {
	defer h.drop(sub)
	for {
		var cmd Command
		if err := sub.conn.ReadJSON(&cmd); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				h.send(sub, h.errorEvent("", 0, fmt.Errorf("hostbridge: malformed command: %w", err)))
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("read ended", "err", err)
			}
			return
		}
		select {
		case h.commands <- inbound{cmd: cmd, from: sub}:
		default:
			h.send(sub, h.errorEvent(cmd.RequestID, 0, ErrBusy))
		}
	}
}

func (h *Hub) send(sub *subscriber, data []byte) {
	if err := sub.write(websocket.TextMessage, data); err != nil {
		h.log.Debug("write failed", "err", err)
		h.drop(sub)
	}
}

func (h *Hub) snapshotSubscribers() []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	return subs
}

func (h *Hub) broadcast(data []byte) {
	for _, sub := range h.snapshotSubscribers() {
		h.send(sub, data)
	}
}

func (h *Hub) broadcastBinary(data []byte) {
	for _, sub := range h.snapshotSubscribers() {
		if err := sub.write(websocket.BinaryMessage, data); err != nil {
			h.drop(sub)
		}
	}
}

func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
		h.log.Info("subscriber disconnected")
	}
}

func (h *Hub) closeAll() {
	for _, sub := range h.snapshotSubscribers() {
		sub.mu.Lock()
		_ = sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		sub.mu.Unlock()
		h.drop(sub)
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
