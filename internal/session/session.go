// Package session holds per-user UI state: the current view, the card being
// reviewed and the template rotation index.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

type Session struct {
	ID             uuid.UUID       `json:"id"`
	View           View            `json:"view"`
	Contact        *entity.Contact `json:"contact,omitempty"`
	Draft          *entity.Draft   `json:"draft,omitempty"`
	ImageURI       string          `json:"imageUri,omitempty"`
	TemplateIndex  int             `json:"templateIndex"`
	SelectedRecord *uuid.UUID      `json:"selectedRecord,omitempty"`
	LastError      string          `json:"lastError,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Transition moves the session to another view. Leaving the detail view drops
// the selection.
func (s *Session) Transition(to View) error {
	if err := checkTransition(s.View, to); err != nil {
		return err
	}
	if s.View == ViewHistoryDetail {
		s.SelectedRecord = nil
	}
	s.View = to
	return nil
}

// ResetCapture clears the card under review. The template index survives.
func (s *Session) ResetCapture() {
	s.Contact = nil
	s.Draft = nil
	s.ImageURI = ""
}

func (s *Session) clone() Session {
	out := *s
	if s.Contact != nil {
		c := *s.Contact
		out.Contact = &c
	}
	if s.Draft != nil {
		d := *s.Draft
		out.Draft = &d
	}
	if s.SelectedRecord != nil {
		id := *s.SelectedRecord
		out.SelectedRecord = &id
	}
	return out
}

// Store keeps sessions in memory. All access goes through copies so callers
// never race on a live session.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	logger   *slog.Logger
	now      func() time.Time
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{sessions: map[uuid.UUID]*Session{}, logger: logger, now: time.Now}
}

// Create opens a session. Users who have not set a name or linked Google
// start on the settings screen.
func (st *Store) Create(needsOnboarding bool) Session {
	now := st.now()
	s := &Session{ID: uuid.New(), View: ViewCamera, CreatedAt: now, UpdatedAt: now}
	if needsOnboarding {
		s.View = ViewSettings
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	st.logger.Info("session.created", "session_id", s.ID, "view", s.View)
	return s.clone()
}

func (st *Store) Get(id uuid.UUID) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, common.NotFoundErrorf("session %s not found", id)
	}
	return s.clone(), nil
}

// Update applies fn to a copy of the session and commits it only when fn
// succeeds.
func (st *Store) Update(id uuid.UUID, fn func(*Session) error) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return Session{}, common.NotFoundErrorf("session %s not found", id)
	}
	next := s.clone()
	if err := fn(&next); err != nil {
		return s.clone(), err
	}
	next.UpdatedAt = st.now()
	*s = next
	return next.clone(), nil
}

// Navigate performs a user-driven view change. Opening HISTORY_DETAIL needs the
// record to show.
func (st *Store) Navigate(id uuid.UUID, to View, record *uuid.UUID) (Session, error) {
	if to == ViewHistoryDetail && (record == nil || *record == uuid.Nil) {
		return Session{}, common.InvalidInputErrorf("recordId is required to open a history entry")
	}
	return st.Update(id, func(s *Session) error {
		from := s.View
		if err := s.Transition(to); err != nil {
			return err
		}
		switch {
		case to == ViewHistoryDetail:
			r := *record
			s.SelectedRecord = &r
		case from == ViewReview && to == ViewCamera:
			// retake
			s.ResetCapture()
		}
		s.LastError = ""
		st.logger.Debug("session.navigate", "session_id", s.ID, "from", from, "to", to)
		return nil
	})
}

func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune drops sessions idle for longer than maxAge and returns how many went.
func (st *Store) Prune(maxAge time.Duration) int {
	cutoff := st.now().Add(-maxAge)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		st.logger.Info("session.pruned", "count", n, "remaining", len(st.sessions))
	}
	return n
}
