package web

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-lesionform/pkg/controller"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "lesionform_session"

// session is one browser's form. inFlight is the submit guard: the controller
// does not refuse a second Submit, so the web layer does.
type session struct {
	id       string
	ctrl     *controller.Controller
	inFlight atomic.Bool

	// Guarded by sessionStore.mu.
	refs     int
	lastSeen time.Time
}

// sessionStore keeps sessions in memory, keyed by cookie value. A session is
// only swept while no request holds it.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	newCtrl  func() *controller.Controller
	now      func() time.Time
}

func newSessionStore(newCtrl func() *controller.Controller) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*session),
		newCtrl:  newCtrl,
		now:      time.Now,
	}
}

// resolve returns the caller's session, creating it and setting the cookie
// when the request carries none or an unknown id. The caller must release the
// session when the request is done with it.
func (st *sessionStore) resolve(w http.ResponseWriter, r *http.Request) *session {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		st.mu.Lock()
		sess, ok := st.sessions[cookie.Value]
		if ok {
			sess.refs++
			sess.lastSeen = st.now()
		}
		st.mu.Unlock()
		if ok {
			return sess
		}
	}

	sess := &session{id: uuid.NewString(), ctrl: st.newCtrl(), refs: 1}
	st.mu.Lock()
	sess.lastSeen = st.now()
	st.sessions[sess.id] = sess
	st.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// release ends a request's hold on sess.
func (st *sessionStore) release(sess *session) {
	st.mu.Lock()
	sess.refs--
	sess.lastSeen = st.now()
	st.mu.Unlock()
}

// sweep closes and forgets sessions idle for longer than maxIdle. Sessions
// held by a request or with a submission in flight are kept.
func (st *sessionStore) sweep(maxIdle time.Duration) int {
	st.mu.Lock()
	cutoff := st.now().Add(-maxIdle)
	var expired []*session
	for id, sess := range st.sessions {
		if sess.refs > 0 || sess.inFlight.Load() || sess.lastSeen.After(cutoff) {
			continue
		}
		expired = append(expired, sess)
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	for _, sess := range expired {
		sess.ctrl.Close()
	}
	return len(expired)
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	for _, sess := range sessions {
		sess.ctrl.Close()
	}
}
