package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pdfqa/internal/rag"
)

var (
	ErrSessionUnknown = errors.New("unknown session")
	ErrSessionClosed  = errors.New("session closed")
)

// Conn is the transport seam: the session layer writes responses and close
// signals through it, never reading. Implementations must tolerate Send being
// called from a goroutine other than the one that accepted the connection.
type Conn interface {
	Send(payload []byte) error
	Close(reason string) error
}

// Answerer is the QA pipeline surface the session layer routes questions to.
// clientID attributes the exchange in the transcript; it is never used for
// routing.
type Answerer interface {
	Ask(ctx context.Context, clientID, documentID, question string) (*rag.Answer, error)
}

// State is the lifecycle of one connection.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

// Config tunes per-session rate limiting and queueing.
type Config struct {
	RateLimit  int           // messages admitted per RateWindow
	RateWindow time.Duration // sliding window length
	QueueSize  int           // buffered inbound messages per session
}

func (c Config) withDefaults() Config {
	if c.RateLimit <= 0 {
		c.RateLimit = 10
	}
	if c.RateWindow <= 0 {
		c.RateWindow = time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
	return c
}

// inboundMessage is the wire shape of a client question.
type inboundMessage struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

type outboundAnswer struct {
	Answer string `json:"answer"`
	Found  bool   `json:"found"`
}

type outboundError struct {
	Error string `json:"error"`
}

// Session is the per-connection state. It is owned by the Manager; all
// mutation happens under its mutex except the inbound queue, which only the
// session's worker goroutine drains, preserving per-connection ordering.
type Session struct {
	ClientID string

	mu         sync.Mutex
	state      State
	lastActive time.Time
	lastDocID  string

	conn    Conn
	limiter *windowLimiter
	inbound chan inboundMessage
	done    chan struct{}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Manager tracks all live client sessions, enforces per-client message
// quotas, and routes well-formed questions to the QA pipeline, delivering
// each result to the originating connection only. Connect, Disconnect and
// lookup are atomic with respect to each other.
type Manager struct {
	answerer Answerer
	cfg      Config
	log      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	wg sync.WaitGroup
}

func NewManager(answerer Answerer, cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		answerer: answerer,
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Connect registers a new connection, assigns it a client identifier and
// starts its worker. The session is Active once Connect returns.
func (m *Manager) Connect(conn Conn) (*Session, error) {
	s := &Session{
		ClientID:   uuid.NewString(),
		state:      StateConnecting,
		lastActive: time.Now(),
		conn:       conn,
		limiter:    newWindowLimiter(m.cfg.RateLimit, m.cfg.RateWindow),
		inbound:    make(chan inboundMessage, m.cfg.QueueSize),
		done:       make(chan struct{}),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrSessionClosed
	}
	m.sessions[s.ClientID] = s
	m.mu.Unlock()

	s.mu.Lock()
	s.state = StateActive
	s.mu.Unlock()

	m.wg.Add(1)
	go m.serve(s)

	m.log.Info("session connected", zap.String("client_id", s.ClientID))
	return s, nil
}

// Lookup returns the session for clientID, if connected.
func (m *Manager) Lookup(clientID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[clientID]
	return s, ok
}

// Len returns the number of connected sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// HandleMessage processes one raw inbound frame for clientID. Over-quota
// messages terminate the session with a policy-violation close and receive
// no response. Malformed payloads get an error response and the session
// stays open. Well-formed questions are queued for in-order processing.
func (m *Manager) HandleMessage(clientID string, raw []byte) error {
	s, ok := m.Lookup(clientID)
	if !ok {
		return ErrSessionUnknown
	}

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.lastActive = time.Now()
	s.mu.Unlock()

	if !s.limiter.Allow(time.Now()) {
		m.log.Warn("session rate limit exceeded", zap.String("client_id", s.ClientID))
		m.close(s, "rate limit exceeded")
		return nil
	}

	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.deliver(s, outboundError{Error: "malformed message: expected {document_id, question}"})
		return nil
	}
	msg.Question = strings.TrimSpace(msg.Question)
	if msg.Question == "" {
		m.deliver(s, outboundError{Error: "question is required"})
		return nil
	}

	select {
	case s.inbound <- msg:
		return nil
	default:
		m.deliver(s, outboundError{Error: "too many pending questions"})
		return nil
	}
}

// Disconnect removes the session on client-initiated close or transport
// failure. All per-session state is discarded; in-flight results for it are
// dropped at delivery time.
func (m *Manager) Disconnect(clientID string) {
	if s, ok := m.Lookup(clientID); ok {
		m.close(s, "")
	}
}

// Close tears down every session and waits for their workers.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.close(s, "server shutting down")
	}
	m.wg.Wait()
}

// serve drains one session's queue sequentially, so responses go back in
// the order the questions arrived.
func (m *Manager) serve(s *Session) {
	defer m.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.inbound:
			m.answer(s, msg)
		}
	}
}

func (m *Manager) answer(s *Session, msg inboundMessage) {
	docID := m.resolveDocument(s, msg.DocumentID)
	if docID == "" {
		m.deliver(s, outboundError{Error: "document_id is required"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	answer, err := m.answerer.Ask(ctx, s.ClientID, docID, msg.Question)
	if err != nil {
		m.log.Warn("answer failed",
			zap.String("client_id", s.ClientID),
			zap.String("document_id", docID),
			zap.Error(err))
		m.deliver(s, outboundError{Error: err.Error()})
		return
	}
	m.deliver(s, outboundAnswer{Answer: answer.Text, Found: answer.Found})
}

// resolveDocument applies conversational continuity: an empty document_id
// reuses the session's previous one.
func (m *Manager) resolveDocument(s *Session, docID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return s.lastDocID
	}
	s.lastDocID = docID
	return docID
}

// deliver writes a payload to the session's connection after checking it is
// still alive. A closed session never receives a late result.
func (m *Manager) deliver(s *Session, payload interface{}) {
	if !s.alive() {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		m.log.Error("marshal response failed", zap.Error(err))
		return
	}
	if err := s.conn.Send(data); err != nil {
		m.log.Warn("send failed, dropping session",
			zap.String("client_id", s.ClientID), zap.Error(err))
		m.close(s, "")
	}
}

func (m *Manager) close(s *Session, reason string) {
	s.mu.Lock()
	if s.state == StateClosing || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	s.mu.Unlock()

	close(s.done)
	_ = s.conn.Close(reason)

	m.mu.Lock()
	delete(m.sessions, s.ClientID)
	m.mu.Unlock()

	s.mu.Lock()
	s.state = StateClosed
	s.lastDocID = ""
	s.mu.Unlock()

	m.log.Info("session closed", zap.String("client_id", s.ClientID), zap.String("reason", reason))
}
