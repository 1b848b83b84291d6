package albite

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dumbledore/AlbiteRTSP/pkg/rtp"
)

// mediaSession is one negotiated unicast delivery
type mediaSession struct {
	id     string
	sender *rtp.Sender
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{} // 펌프 종료 시 닫힘
}

func newMediaSession(id string, sender *rtp.Sender, logger *slog.Logger) *mediaSession {
	return &mediaSession{
		id:     id,
		sender: sender,
		logger: logger.With("sessionId", id),
	}
}

// play starts the media pump unless one is already running. It reports
// whether a new pump was started.
func (m *mediaSession) play(ctx context.Context, media MediaConfig) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		select {
		case <-m.done:
			// 이전 펌프가 끝났으면 처음부터 다시 재생
		default:
			return false
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		pumpMedia(ctx, m.sender, media, m.logger)
	}()
	return true
}

// stop stops the pump, waits for it and closes the sender
func (m *mediaSession) stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if err := m.sender.Close(); err != nil {
		m.logger.Error("Error closing RTP sender", "err", err)
	}
}

// sessionRegistry manages media sessions by session id
type sessionRegistry struct {
	sessions map[string]*mediaSession
	mutex    sync.RWMutex
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*mediaSession),
	}
}

// get returns the session with the given id
func (r *sessionRegistry) get(id string) (*mediaSession, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	session, ok := r.sessions[id]
	return session, ok
}

// put registers a session, replacing any previous one with the same id
func (r *sessionRegistry) put(session *mediaSession) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.sessions[session.id] = session
}

// remove unregisters a session and returns it
func (r *sessionRegistry) remove(id string) (*mediaSession, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return session, ok
}

// count returns the number of registered sessions
func (r *sessionRegistry) count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.sessions)
}

// stopAll stops and unregisters every session
func (r *sessionRegistry) stopAll() {
	r.mutex.Lock()
	sessions := make([]*mediaSession, 0, len(r.sessions))
	for id, session := range r.sessions {
		sessions = append(sessions, session)
		delete(r.sessions, id)
	}
	r.mutex.Unlock()

	for _, session := range sessions {
		session.stop()
	}
}
