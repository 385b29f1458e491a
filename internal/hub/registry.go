package hub

import (
	"sync"
	"time"

	"chatline/backend/internal/metrics"
)

// Handle is one live transport connection.
type Handle interface {
	// ID is unique for the lifetime of the process.
	ID() string
	// Send queues payload without blocking.
	Send(payload []byte) error
	Close()
}

// Registry maps user identities to their live connection handles.
type Registry interface {
	Register(userID string, h Handle)
	Unregister(h Handle)
	HandlesFor(userID string) []Handle
}

type session struct {
	handle      Handle
	userID      string
	connectedAt time.Time
}

// MemoryRegistry is an in-process Registry. A handle belongs to at most one
// user; registering it again under another user moves it.
type MemoryRegistry struct {
	mu       sync.RWMutex
	users    map[string]map[string]*session // userID -> handleID -> session
	sessions map[string]*session            // handleID -> session
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		users:    make(map[string]map[string]*session),
		sessions: make(map[string]*session),
	}
}

// Register adds a handle to a user's live set.
func (r *MemoryRegistry) Register(userID string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[h.ID()]; ok {
		if prev.userID == userID {
			return
		}
		r.removeLocked(prev)
	}

	s := &session{handle: h, userID: userID, connectedAt: time.Now()}
	r.sessions[h.ID()] = s
	if _, ok := r.users[userID]; !ok {
		r.users[userID] = make(map[string]*session)
	}
	r.users[userID][h.ID()] = s
	metrics.ActiveSessions.Inc()
}

// Unregister removes a handle from whichever user owns it. Unknown handles
// are ignored.
func (r *MemoryRegistry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[h.ID()]; ok {
		r.removeLocked(s)
	}
}

func (r *MemoryRegistry) removeLocked(s *session) {
	delete(r.sessions, s.handle.ID())
	if handles, ok := r.users[s.userID]; ok {
		delete(handles, s.handle.ID())
		if len(handles) == 0 {
			delete(r.users, s.userID)
		}
	}
	metrics.ActiveSessions.Dec()
}

// HandlesFor returns a snapshot of the user's live handles. The result is
// empty, not an error, when the user is offline.
func (r *MemoryRegistry) HandlesFor(userID string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := r.users[userID]
	out := make([]Handle, 0, len(handles))
	for _, s := range handles {
		out = append(out, s.handle)
	}
	return out
}

// Len returns the number of live handles across all users.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
