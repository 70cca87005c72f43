package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/syedak1/dispatch-ai/internal/dto"
)

// ErrNoSession is returned when a fragment arrives for a camera that has
// no open session (e.g. a race with its disconnect).
var ErrNoSession = errors.New("no buffer session for camera")

// session accumulates fragments for one camera between flushes. Each
// session has its own lock so cameras never contend with each other.
type session struct {
	mu           sync.Mutex
	fragments    []dto.Fragment
	windowStart  time.Time
	lastSnapshot string
}

// FlushResult is the consumed content of one accumulation window.
type FlushResult struct {
	Fragments    []dto.Fragment
	LastSnapshot string
	WindowStart  time.Time
	FlushedAt    time.Time
}

// BufferService keeps one accumulation buffer per connected camera.
type BufferService struct {
	mu       sync.RWMutex
	sessions map[string]*session
	window   time.Duration
}

func NewBufferService(window time.Duration) *BufferService {
	return &BufferService{
		sessions: make(map[string]*session),
		window:   window,
	}
}

// Open creates a fresh session for the camera, replacing any prior one
// under the same id.
func (s *BufferService) Open(cameraID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[cameraID] = &session{
		fragments:   make([]dto.Fragment, 0),
		windowStart: time.Now(),
	}
}

// Close discards the camera's session and any buffered fragments.
func (s *BufferService) Close(cameraID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, cameraID)
}

func (s *BufferService) get(cameraID string) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[cameraID]
}

// Append adds a fragment to the camera's buffer in arrival order and
// remembers the fragment's snapshot, if any, as the latest one seen.
func (s *BufferService) Append(cameraID string, frag dto.Fragment) error {
	sess := s.get(cameraID)
	if sess == nil {
		return ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.fragments = append(sess.fragments, frag)
	if frag.Snapshot != "" {
		sess.lastSnapshot = frag.Snapshot
	}
	return nil
}

// SetLastSnapshot records the most recent frame seen for the camera. It
// survives flushes until replaced.
func (s *BufferService) SetLastSnapshot(cameraID, snapshot string) {
	sess := s.get(cameraID)
	if sess == nil {
		return
	}
	sess.mu.Lock()
	sess.lastSnapshot = snapshot
	sess.mu.Unlock()
}

// Elapsed returns the time since the camera's current window started.
func (s *BufferService) Elapsed(cameraID string) time.Duration {
	sess := s.get(cameraID)
	if sess == nil {
		return 0
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return time.Since(sess.windowStart)
}

// WindowExceeded reports whether the accumulation window has elapsed and
// the buffer is due for a flush.
func (s *BufferService) WindowExceeded(cameraID string) bool {
	sess := s.get(cameraID)
	if sess == nil {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return time.Since(sess.windowStart) >= s.window
}

// Flush atomically swaps the buffer for an empty one and resets the
// window. Fragments come back in arrival order; an append racing the
// flush lands in the new buffer. The second return is false when the
// camera has no session.
func (s *BufferService) Flush(cameraID string) (FlushResult, bool) {
	sess := s.get(cameraID)
	if sess == nil {
		return FlushResult{}, false
	}

	now := time.Now()
	sess.mu.Lock()
	defer sess.mu.Unlock()

	res := FlushResult{
		Fragments:    sess.fragments,
		LastSnapshot: sess.lastSnapshot,
		WindowStart:  sess.windowStart,
		FlushedAt:    now,
	}
	sess.fragments = make([]dto.Fragment, 0)
	sess.windowStart = now
	return res, true
}

// Window returns the configured accumulation window.
func (s *BufferService) Window() time.Duration {
	return s.window
}
