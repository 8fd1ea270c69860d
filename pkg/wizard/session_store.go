package wizard

import (
	"sync"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	log "github.com/sirupsen/logrus"
)

type storeEntry struct {
	userId int
	// expiresAt is guarded by the store mutex, session by mu.
	expiresAt time.Time
	mu        sync.Mutex
	session   *Session
}

// SessionStore keeps wizard sessions in process memory. A session expires ttl after its last
// change and is only visible to the user who started it.
type SessionStore struct {
	mu        sync.Mutex
	entries   map[string]*storeEntry
	ttl       time.Duration
	clock     utils.Clock
	lastSweep time.Time
}

func NewSessionStore(ttl time.Duration, clock utils.Clock) *SessionStore {
	return &SessionStore{
		entries: make(map[string]*storeEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (s *SessionStore) Add(session *Session) Session {
	now := s.clock.Now()
	session.CreatedAt = now
	session.ExpiresAt = now.Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)
	s.entries[session.Id] = &storeEntry{userId: session.UserId, expiresAt: session.ExpiresAt, session: session}
	return *session.clone()
}

func (s *SessionStore) Get(id string, userId int) (Session, error) {
	entry, err := s.lookup(id, userId)
	if err != nil {
		return Session{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return *entry.session.clone(), nil
}

// Update runs fn on a copy of the session and stores the copy when fn succeeds. Updates of one
// session are serialized; fn may block.
func (s *SessionStore) Update(id string, userId int, fn func(*Session) error) (Session, error) {
	entry, err := s.lookup(id, userId)
	if err != nil {
		return Session{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.session.clone()
	if err := fn(working); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	working.ExpiresAt = s.clock.Now().Add(s.ttl)
	entry.expiresAt = working.ExpiresAt
	s.mu.Unlock()

	entry.session = working
	return *working.clone(), nil
}

func (s *SessionStore) Delete(id string, userId int) error {
	if _, err := s.lookup(id, userId); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *SessionStore) lookup(id string, userId int) (*storeEntry, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, apperr.NotFound("Wizard session not found", ErrSessionNotFound)
	}
	if now.After(entry.expiresAt) {
		delete(s.entries, id)
		return nil, apperr.NotFound("Wizard session not found", ErrSessionNotFound)
	}
	if entry.userId != userId {
		log.Warnf("user %d tried to access wizard session of user %d", userId, entry.userId)
		err := apperr.Authorization("Wizard session belongs to another user")
		err.Cause = ErrNotSessionOwner
		return nil, err
	}
	return entry, nil
}

func (s *SessionStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debugf("removed %d expired wizard sessions", removed)
	}
	s.lastSweep = now
}
