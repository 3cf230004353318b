// Package chat owns per-session conversation state and runs each user
// submission to completion: build prompt, call the model, append, save.
package chat

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ram70099/ChatBot/internal/history"
	"github.com/ram70099/ChatBot/internal/llm"
	"github.com/ram70099/ChatBot/internal/logger"
	"github.com/ram70099/ChatBot/internal/prompt"
)

// ErrEmptyInput is returned for blank submissions; nothing is sent or stored.
var ErrEmptyInput = errors.New("empty input")

// Generator produces a reply for a flattened prompt. *llm.Model implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) llm.Result
}

// Options tunes how sessions build prompts and record failures.
type Options struct {
	Builder prompt.Builder
	// PersistFailures stores failure text as the AI reply. When false a failed
	// turn is returned to the caller and then forgotten.
	PersistFailures bool
}

// Session is one user's conversation. It exclusively owns its in-memory
// History; submissions are serialized.
type Session struct {
	id              string
	store           history.Store
	model           Generator
	builder         prompt.Builder
	persistFailures bool

	mu      sync.Mutex
	history history.History
	flash   *history.Exchange
}

// NewSession loads the History from store and binds it to a new session.
func NewSession(id string, store history.Store, model Generator, opts Options) (*Session, error) {
	h, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	logger.L.Info("session started", "session", id, "exchanges", len(h))
	return &Session{
		id:              id,
		store:           store,
		model:           model,
		builder:         opts.Builder,
		persistFailures: opts.PersistFailures,
		history:         h,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns a copy of the conversation so far.
func (s *Session) History() history.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(history.History, len(s.history))
	copy(out, s.history)
	return out
}

// Submit runs one submission to completion. input is stored verbatim; only
// blank input is rejected. A model failure is not an error: it comes back in
// Turn.Result. A save failure is returned and leaves the History unchanged.
func (s *Session) Submit(ctx context.Context, input string) (Turn, error) {
	if strings.TrimSpace(input) == "" {
		return Turn{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := s.runTurn(ctx, input)
	if err != nil {
		logger.L.Error("submission failed", "session", s.id, "error", err)
		return Turn{}, err
	}
	if !turn.Persisted {
		ex := turn.Exchange
		s.flash = &ex
	}
	logger.L.Info("submission completed", "session", s.id, "failed", turn.Result.Failed(), "persisted", turn.Persisted, "exchanges", len(s.history))
	return turn, nil
}

// TakeFlash returns the last unpersisted exchange once, then clears it.
func (s *Session) TakeFlash() (history.Exchange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flash == nil {
		return history.Exchange{}, false
	}
	ex := *s.flash
	s.flash = nil
	return ex, true
}

// MaxSessions bounds how many sessions a Manager keeps in memory.
const MaxSessions = 32

type managed struct {
	session *Session
	elem    *list.Element
}

// Manager hands out sessions by id and keeps at most MaxSessions of them,
// dropping the least recently used.
//
// Every session works on the History snapshot it loaded when it started.
// When two live sessions submit, the later save overwrites the file and the
// other session's new exchanges are lost.
type Manager struct {
	store history.Store
	model Generator
	opts  Options
	newID func() string
	limit int

	mu       sync.Mutex
	sessions map[string]*managed
	recent   *list.List // ids, most recently used at the front
}

// NewManager returns a Manager whose sessions share store and model.
func NewManager(store history.Store, model Generator, opts Options) *Manager {
	return &Manager{
		store:    store,
		model:    model,
		opts:     opts,
		newID:    uuid.NewString,
		limit:    MaxSessions,
		sessions: make(map[string]*managed),
		recent:   list.New(),
	}
}

// Get returns an existing session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	m.recent.MoveToFront(e.elem)
	return e.session, true
}

// Len reports how many sessions are held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Open returns the session for id, or starts a new one under a fresh id when
// id is unknown. Starting a session loads the History from the store.
func (m *Manager) Open(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		m.recent.MoveToFront(e.elem)
		return e.session, nil
	}
	s, err := NewSession(m.newID(), m.store, m.model, m.opts)
	if err != nil {
		return nil, err
	}
	m.sessions[s.id] = &managed{session: s, elem: m.recent.PushFront(s.id)}
	for m.limit > 0 && len(m.sessions) > m.limit {
		oldest := m.recent.Back()
		evicted := m.recent.Remove(oldest).(string)
		delete(m.sessions, evicted)
		logger.L.Debug("session evicted", "session", evicted)
	}
	return s, nil
}
