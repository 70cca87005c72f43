package registry

import (
	"sync"

	"github.com/syedak1/dispatch-ai/internal/dto"
	"github.com/syedak1/dispatch-ai/internal/logger"
	"github.com/syedak1/dispatch-ai/internal/services/storage"
)

// Conn is the slice of *websocket.Conn the registry needs. Tests plug in
// fakes; production code passes gorilla connections directly.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry tracks live camera and dispatcher connections and routes
// outbound messages between them. Delivery is best-effort: a failed send
// prunes that one connection and the rest still receive the message.
type Registry struct {
	mu          sync.Mutex
	cameras     map[string]Conn
	dispatchers map[Conn]bool
	buffers     *storage.BufferService
	logger      *logger.Logger
}

func NewRegistry(buffers *storage.BufferService, logger *logger.Logger) *Registry {
	return &Registry{
		cameras:     make(map[string]Conn),
		dispatchers: make(map[Conn]bool),
		buffers:     buffers,
		logger:      logger,
	}
}

// RegisterCamera opens a fresh buffer session for the camera and
// announces it to every dispatcher. A duplicate id silently replaces the
// prior session; no uniqueness is enforced.
func (r *Registry) RegisterCamera(id string, conn Conn) {
	r.mu.Lock()
	r.cameras[id] = conn
	total := len(r.cameras)
	r.mu.Unlock()

	r.buffers.Open(id)
	r.logger.Info("Camera %s connected (total: %d)", id, total)
	r.Broadcast(dto.CameraConnected{Type: dto.TypeCameraConnected, CameraID: id})
}

// UnregisterCamera removes the camera and discards its buffer session.
// No-op when the id is unknown.
func (r *Registry) UnregisterCamera(id string) {
	r.mu.Lock()
	delete(r.cameras, id)
	total := len(r.cameras)
	r.mu.Unlock()

	r.buffers.Close(id)
	r.logger.Info("Camera %s disconnected (total: %d)", id, total)
}

// RegisterDispatcher adds the connection to the broadcast set and sends
// it, alone, the list of currently live camera ids.
func (r *Registry) RegisterDispatcher(conn Conn) {
	r.mu.Lock()
	r.dispatchers[conn] = true
	total := len(r.dispatchers)
	ids := r.cameraIDsLocked()
	err := conn.WriteJSON(dto.CameraList{Type: dto.TypeCameraList, Cameras: ids})
	if err != nil {
		delete(r.dispatchers, conn)
		conn.Close()
		total--
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("Error sending camera list: %v", err)
		return
	}
	r.logger.Info("Dispatcher connected (total: %d)", total)
}

// UnregisterDispatcher removes the connection; no-op if absent.
func (r *Registry) UnregisterDispatcher(conn Conn) {
	r.mu.Lock()
	_, ok := r.dispatchers[conn]
	delete(r.dispatchers, conn)
	total := len(r.dispatchers)
	r.mu.Unlock()

	if ok {
		r.logger.Info("Dispatcher disconnected (total: %d)", total)
	}
}

// Broadcast sends msg to every dispatcher. A connection whose send fails
// is closed and removed without interrupting delivery to the others; the
// return value is the number of connections pruned. There is no retry
// and no queueing.
func (r *Registry) Broadcast(msg interface{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for conn := range r.dispatchers {
		if err := conn.WriteJSON(msg); err != nil {
			r.logger.Error("Error sending to dispatcher: %v", err)
			delete(r.dispatchers, conn)
			conn.Close()
			pruned++
		}
	}
	return pruned
}

// CameraIDs returns the ids of currently connected cameras.
func (r *Registry) CameraIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cameraIDsLocked()
}

func (r *Registry) cameraIDsLocked() []string {
	ids := make([]string, 0, len(r.cameras))
	for id := range r.cameras {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) CameraCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cameras)
}

func (r *Registry) DispatcherCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dispatchers)
}
