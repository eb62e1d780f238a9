package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rferrors "github.com/reflow-dev/reflow/internal/errors"
	"github.com/reflow-dev/reflow/pkg/component"
	"github.com/reflow-dev/reflow/pkg/host"
	"github.com/reflow-dev/reflow/pkg/host/memdom"
	"github.com/reflow-dev/reflow/pkg/reactive"
	"github.com/reflow-dev/reflow/pkg/vdom"
)

var tracer = otel.Tracer("github.com/reflow-dev/reflow/pkg/server")

// Session is one connected client: its own scheduler, document, recorder,
// and root component instance. Events are handled one at a time on the read
// loop, so a session never processes two events concurrently.
type Session struct {
	ID        string
	CreatedAt time.Time

	// conn is nil while the session is detached (transport dropped, state
	// kept for resume). writeMu guards conn and all writes to it.
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool

	sendSeq    atomic.Uint64
	lastActive atomic.Int64

	sched *reactive.Scheduler
	doc   *memdom.Document
	rec   *host.Recorder
	root  *component.Instance

	config  *Config
	logger  *slog.Logger
	metrics *Metrics

	done    chan struct{}
	onClose func(*Session)

	eventCount atomic.Uint64
	bytesSent  atomic.Uint64
}

// newSession builds the rendering pipeline for one client. The root
// component is not mounted yet; the manager does that before handing the
// session out.
func newSession(conn *websocket.Conn, config *Config, logger *slog.Logger, metrics *Metrics) *Session {
	id := uuid.NewString()
	logger = logger.With("session_id", id)

	doc := memdom.New("div")
	rec := host.NewRecorder(doc)
	sched := reactive.NewScheduler(
		reactive.WithLogger(logger),
		reactive.WithHooks(sessionHooks(logger, metrics)),
	)

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		conn:      conn,
		sched:     sched,
		doc:       doc,
		rec:       rec,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		done:      make(chan struct{}),
	}

	// The mount point gets the first stable id so the client can anchor the
	// patch stream before any ops arrive.
	rec.NodeID(doc.Root())
	s.touch()
	return s
}

// mountRoot mounts the app's root component into the session document. The
// creation ops land in the recorder, ready for the first patch frame.
func (s *Session) mountRoot(app component.Options) {
	env := component.Env{
		Scheduler: s.sched,
		Patcher:   vdom.NewPatcher(s.rec, vdom.WithLogger(s.logger)),
		Logger:    s.logger,
	}
	s.root = component.New(app, env, nil, nil)
	s.root.Mount(s.doc.Root())
	<-s.sched.NextTick()
}

// RootID returns the stable id of the session's mount point.
func (s *Session) RootID() uint64 {
	return s.rec.NodeID(s.doc.Root())
}

// Root returns the root component instance.
func (s *Session) Root() *component.Instance {
	return s.root
}

// HTML returns the current document markup, snapshotted on the session's
// scheduler so it never interleaves with a flush.
func (s *Session) HTML() string {
	var html string
	s.sched.Do(func() {
		html = s.doc.HTML()
	})
	return html
}

// Start spawns the read and heartbeat loops for one attached connection.
// Call again after Resume to serve the new connection.
func (s *Session) Start(conn *websocket.Conn) {
	go s.readLoop(conn)
	go s.heartbeatLoop(conn)
}

// readLoop reads frames from conn until it drops. A transport error
// detaches the session rather than closing it, leaving the state resumable.
func (s *Session) readLoop(conn *websocket.Conn) {
	defer s.detach(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		s.touch()

		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			s.logger.Error("frame decode error", "error", err)
			s.sendError("R061")
			continue
		}

		switch f.Type {
		case FrameEvent:
			s.handleEvent(&f)

		case FramePing:
			s.writeFrame(&Frame{Type: FramePong})

		case FramePong:
			// Heartbeat reply; activity already recorded.

		case FrameClose:
			s.logger.Info("client closing", "message", f.Message)
			s.Close()
			return

		default:
			s.logger.Warn("unknown frame type", "type", f.Type)
			s.sendError("R061")
		}
	}
}

// heartbeatLoop pings the client until the session closes or the ping
// fails.
func (s *Session) heartbeatLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.isCurrent(conn) {
				return
			}
			if err := s.writeFrame(&Frame{Type: FramePing}); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

// handleEvent dispatches one client event into the document, waits for the
// resulting flush, and ships the recorded ops as a patch frame.
func (s *Session) handleEvent(f *Frame) {
	start := time.Now()
	s.eventCount.Add(1)

	_, span := tracer.Start(context.Background(), "session.event",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("event.type", f.Event),
			attribute.Int64("event.node", int64(f.Node)),
		),
	)
	defer span.End()

	node, ok := s.rec.NodeByID(f.Node).(*memdom.Node)
	if !ok {
		s.logger.Warn("event for unknown node", "node", f.Node, "event", f.Event)
		s.sendError("R063")
		span.SetStatus(codes.Error, "unknown target node")
		s.metrics.eventProcessed("unknown_node", time.Since(start).Seconds())
		return
	}

	delivered := false
	s.sched.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("event handler panic",
					"event", f.Event,
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()
		delivered = node.Dispatch(host.Event{Type: f.Event, Target: node, Data: f.Data})
	})

	if !delivered {
		s.sendError("R005")
		span.SetStatus(codes.Error, "no handler for event")
		s.metrics.eventProcessed("no_handler", time.Since(start).Seconds())
		return
	}

	<-s.sched.NextTick()

	sent, err := s.flushPatches()
	if err != nil {
		span.SetStatus(codes.Error, "patch write failed")
		s.metrics.eventProcessed("write_error", time.Since(start).Seconds())
		return
	}
	span.SetAttributes(attribute.Int("patch.ops", sent))
	s.metrics.eventProcessed("ok", time.Since(start).Seconds())
}

// flushPatches drains the recorder and sends one patch frame, if anything
// was recorded since the last drain. Returns the number of ops shipped.
func (s *Session) flushPatches() (int, error) {
	ops := s.rec.Take()
	if len(ops) == 0 {
		return 0, nil
	}

	err := s.writeFrame(&Frame{
		Type: FramePatch,
		Seq:  s.sendSeq.Add(1),
		Ops:  ops,
	})
	if err != nil {
		return 0, err
	}
	s.metrics.patchSent(len(ops))
	return len(ops), nil
}

// sendResync sends the full document as one patch frame, rebuilding the
// client's DOM from scratch. Used after a resume, when the client's copy
// can no longer be trusted.
func (s *Session) sendResync() error {
	var ops []host.Op
	s.sched.Do(func() {
		// Anything pending belongs before the snapshot, so drop it.
		s.rec.Take()
		root := s.doc.Root()
		rootID := s.rec.NodeID(root)
		for _, c := range root.Children() {
			s.appendNodeOps(&ops, c, rootID)
		}
	})

	err := s.writeFrame(&Frame{
		Type: FramePatch,
		Seq:  s.sendSeq.Add(1),
		Ops:  ops,
	})
	if err != nil {
		return err
	}
	s.metrics.patchSent(len(ops))
	return nil
}

// appendNodeOps emits the creation ops for one document subtree in
// document order.
func (s *Session) appendNodeOps(ops *[]host.Op, n *memdom.Node, parent uint64) {
	id := s.rec.NodeID(n)

	switch n.Kind {
	case memdom.KindText:
		*ops = append(*ops, host.Op{Kind: host.OpCreateText, Node: id, Text: n.Text})
	case memdom.KindComment:
		*ops = append(*ops, host.Op{Kind: host.OpCreateComment, Node: id, Text: n.Text})
	default:
		if n.NS != "" {
			*ops = append(*ops, host.Op{Kind: host.OpCreateElementNS, Node: id, Tag: n.Tag, NS: n.NS})
		} else {
			*ops = append(*ops, host.Op{Kind: host.OpCreateElement, Node: id, Tag: n.Tag})
		}
		for _, name := range n.AttrNames() {
			value, _ := n.Attr(name)
			*ops = append(*ops, host.Op{Kind: host.OpSetAttribute, Node: id, Key: name, Value: value})
		}
	}

	*ops = append(*ops, host.Op{Kind: host.OpAppendChild, Parent: parent, Node: id})

	for _, c := range n.Children() {
		s.appendNodeOps(ops, c, id)
	}
}

// sendHello sends the opening frame for an attached connection.
func (s *Session) sendHello() error {
	return s.writeFrame(&Frame{
		Type:      FrameHello,
		SessionID: s.ID,
		Root:      s.RootID(),
	})
}

// sessionHooks layers a structured diagnostic for aborted flushes on top
// of the shared metrics instruments.
func sessionHooks(logger *slog.Logger, metrics *Metrics) reactive.SchedulerHooks {
	hooks := metrics.SchedulerHooks()
	onRunaway := hooks.OnRunaway
	hooks.OnRunaway = func(id uint64, label string, user bool) {
		if onRunaway != nil {
			onRunaway(id, label, user)
		}
		kind := "render"
		if user {
			kind = "watch"
		}
		rerr := rferrors.New("R001").WithDetail(
			fmt.Sprintf("%s %q (watcher %d) kept rescheduling itself past the update limit", kind, label, id))
		logger.Error("flush aborted", "error", rerr.FormatCompact())
	}
	return hooks
}

// sendError sends an error frame for a registered code without closing the
// session.
func (s *Session) sendError(code string) {
	rerr := rferrors.New(code)
	s.writeFrame(&Frame{Type: FrameError, Code: rerr.Code, Message: rerr.Message})
}

// writeFrame marshals and sends one frame. Returns ErrSessionClosed when
// the session is closed or detached.
func (s *Session) writeFrame(f *Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.conn == nil {
		return ErrSessionClosed
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("write error", "error", err)
		return err
	}
	s.bytesSent.Add(uint64(len(data)))
	return nil
}

// detach drops conn but keeps the session state alive for a resume. A
// no-op when conn is no longer the session's current connection.
func (s *Session) detach(conn *websocket.Conn) {
	s.writeMu.Lock()
	if s.conn != conn {
		s.writeMu.Unlock()
		return
	}
	s.conn = nil
	s.writeMu.Unlock()

	conn.Close()
	if !s.closed.Load() {
		s.logger.Info("session detached")
	}
}

// Detached reports whether the session currently has no transport.
func (s *Session) Detached() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn == nil
}

// isCurrent reports whether conn is still the session's transport.
func (s *Session) isCurrent(conn *websocket.Conn) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn == conn
}

// Resume attaches a new connection to a detached session. The caller sends
// the hello and a full resync, then calls Start with the new connection.
func (s *Session) Resume(conn *websocket.Conn) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	old := s.conn
	s.conn = conn
	s.writeMu.Unlock()

	if old != nil {
		old.Close()
	}
	s.touch()
	s.logger.Info("session resumed")
	return nil
}

// Close tears the session down for good: transport, component tree, and
// scheduler. Idempotent.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)

	s.writeMu.Lock()
	conn := s.conn
	if conn != nil {
		conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		conn.WriteJSON(&Frame{Type: FrameClose, Message: "server closing"})
	}
	s.conn = nil
	s.writeMu.Unlock()

	if conn != nil {
		conn.Close()
	}

	if s.root != nil {
		s.sched.Do(func() {
			s.root.Destroy()
		})
	}
	s.sched.Close()

	if s.onClose != nil {
		s.onClose(s)
	}
	s.logger.Info("session closed",
		"events", s.eventCount.Load(),
		"bytes_sent", s.bytesSent.Load())
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Idle returns how long since the session last saw client activity.
func (s *Session) Idle() time.Duration {
	return time.Since(time.Unix(0, s.lastActive.Load()))
}
