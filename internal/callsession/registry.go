// Package callsession tracks active calls for the lifetime of the process.
// One call id maps to at most one session; a second start for the same id
// replaces the prior entry rather than merging with it.
package callsession

import (
	"sync"
)

// Session is the per-call record the turn controller works against.
// TicketRef is the opaque handle to the external support conversation; it
// stays empty until the first successful creation call, and creation is
// attempted at most once per session.
type Session struct {
	CallID          string
	CallerPhone     string
	TicketRef       string
	TicketAttempted bool
	Ended           bool
}

// Registry is an in-memory keyed store of active sessions. Per-key
// operations are atomic; no ordering is guaranteed across distinct call ids.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// OnCallStart registers a session for the call, replacing any prior entry
// for the same call id.
func (r *Registry) OnCallStart(callID, phone string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := &Session{CallID: callID, CallerPhone: phone}
	r.sessions[callID] = session
	return *session
}

// Get returns a snapshot of the session for the call id, if one is active.
func (r *Registry) Get(callID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[callID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// OnCallEnd retires the session. Subsequent lookups for the call id return
// absent until a fresh OnCallStart.
func (r *Registry) OnCallEnd(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[callID]; ok {
		session.Ended = true
	}
	delete(r.sessions, callID)
}

// SetTicketRef records the external ticket handle after a successful
// creation call. No-op if the session is gone.
func (r *Registry) SetTicketRef(callID, ticketRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[callID]; ok {
		session.TicketRef = ticketRef
		session.TicketAttempted = true
	}
}

// MarkTicketAttempted records that ticket creation was tried and must not
// be retried, whether or not it succeeded.
func (r *Registry) MarkTicketAttempted(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[callID]; ok {
		session.TicketAttempted = true
	}
}

// Active returns the number of live sessions.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
