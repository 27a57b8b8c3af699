package registry

import "sync"

// Member is a read-only snapshot of one attached participant.
// Language is empty until the participant announces one.
type Member struct {
	ID       string `json:"id"`
	Language string `json:"language,omitempty"`
}

// SessionView is returned from Join so the caller can tell the joiner about
// peers that are already present, including any language they announced
// before the joiner arrived.
type SessionView struct {
	SessionID string   `json:"sessionId"`
	Peers     []Member `json:"peers"`
}

// session holds the mutable per-session state. members maps participant id
// to the last announced language tag ("" until announced).
type session struct {
	mu      sync.Mutex
	members map[string]string
}

// Registry owns all live session state. A session exists exactly while its
// member set is non-empty, and a participant belongs to at most one session.
//
// Locking discipline: mu guards the sessions map and the participant index.
// Join and Leave mutate both and hold mu exclusively for the whole operation.
// SetLanguage and MembersOf take mu read-only to locate the session, then
// serialize on that session's own lock, so sessions do not contend with each
// other on the hot per-turn paths.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	index    map[string]string
}

// New bootstraps an empty registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		index:    make(map[string]string),
	}
}

// Join attaches the participant to the session, creating the session if it
// does not exist yet. If the participant was attached to a different session
// it is detached from it first; previous carries that session's id (empty if
// none) so the caller can notify its remaining members.
func (r *Registry) Join(sessionID, participantID string) (view SessionView, previous string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.index[participantID]; ok && prev != sessionID {
		previous = prev
		r.detachLocked(prev, participantID)
	}

	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{members: make(map[string]string)}
		r.sessions[sessionID] = s
	}
	r.index[participantID] = sessionID

	s.mu.Lock()
	if _, ok := s.members[participantID]; !ok {
		s.members[participantID] = ""
	}
	view = SessionView{SessionID: sessionID, Peers: peersLocked(s, participantID)}
	s.mu.Unlock()

	return view, previous
}

// SetLanguage records the participant's announced language. It is a silent
// no-op when the participant is not a current member of the session.
func (r *Registry) SetLanguage(sessionID, participantID, language string) bool {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, member := s.members[participantID]; !member {
		return false
	}
	s.members[participantID] = language
	return true
}

// Leave detaches the participant from whatever session it belongs to,
// destroying the session if it becomes empty. It returns the affected
// session id and the members that remain; ok is false when the participant
// was not attached anywhere (the call is idempotent).
func (r *Registry) Leave(participantID string) (sessionID string, remaining []Member, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok = r.index[participantID]
	if !ok {
		return "", nil, false
	}
	r.detachLocked(sessionID, participantID)

	if s, alive := r.sessions[sessionID]; alive {
		s.mu.Lock()
		remaining = peersLocked(s, "")
		s.mu.Unlock()
	}
	return sessionID, remaining, true
}

// SessionOf reports which session the participant is currently attached to.
func (r *Registry) SessionOf(participantID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.index[participantID]
	return sessionID, ok
}

// MembersOf returns a snapshot of the session's members for broadcast
// targeting. Unknown sessions yield an empty set.
func (r *Registry) MembersOf(sessionID string) []Member {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return peersLocked(s, "")
}

// detachLocked removes the participant from the session and destroys the
// session when its member set becomes empty. Callers hold r.mu exclusively.
func (r *Registry) detachLocked(sessionID, participantID string) {
	delete(r.index, participantID)
	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.members, participantID)
	empty := len(s.members) == 0
	s.mu.Unlock()

	if empty {
		delete(r.sessions, sessionID)
	}
}

// peersLocked snapshots the member set, excluding one participant id when
// given. Callers hold s.mu.
func peersLocked(s *session, exclude string) []Member {
	peers := make([]Member, 0, len(s.members))
	for id, language := range s.members {
		if id == exclude {
			continue
		}
		peers = append(peers, Member{ID: id, Language: language})
	}
	return peers
}
