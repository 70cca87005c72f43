package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syedak1/dispatch-ai/internal/dto"
	"github.com/syedak1/dispatch-ai/internal/logger"
	"github.com/syedak1/dispatch-ai/internal/metrics"
	"github.com/syedak1/dispatch-ai/internal/services/registry"
	"github.com/syedak1/dispatch-ai/internal/services/storage"
	"github.com/syedak1/dispatch-ai/internal/services/triage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const readTimeout = 60 * time.Second

// CameraWebsocketHandler upgrades a camera connection and runs its read
// loop. The camera id comes from the URL path and is not checked for
// uniqueness: a reconnect under the same id replaces the old session.
func CameraWebsocketHandler(reg *registry.Registry, buffers *storage.BufferService, pipeline *triage.Pipeline, m *metrics.Metrics, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cameraID := r.PathValue("id")
		if cameraID == "" {
			http.Error(w, "missing camera id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(appData string) error {
			conn.SetReadDeadline(time.Now().Add(readTimeout))
			return nil
		})
		defer conn.Close()

		reg.RegisterCamera(cameraID, conn)
		defer reg.UnregisterCamera(cameraID)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				logger.Info("Camera %s read ended: %v", cameraID, err)
				break
			}
			conn.SetReadDeadline(time.Now().Add(readTimeout))

			var msg dto.CameraMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Warning("Camera %s sent malformed message: %v", cameraID, err)
				continue
			}

			switch msg.Type {
			case dto.TypeOvershootResult:
				frag := dto.Fragment{
					Text:      msg.Description,
					Timestamp: msg.Timestamp,
					Snapshot:  msg.Snapshot,
				}
				if frag.Timestamp == "" {
					frag.Timestamp = time.Now().Format(time.RFC3339)
				}
				if err := buffers.Append(cameraID, frag); err != nil {
					logger.Warning("Camera %s: dropping fragment: %v", cameraID, err)
					continue
				}
				m.FragmentsReceived.Add(1)
				if buffers.WindowExceeded(cameraID) {
					pipeline.Spawn(cameraID)
				}

			case dto.TypeForceProcess:
				pipeline.Spawn(cameraID)

			case dto.TypeVideoFrame:
				buffers.SetLastSnapshot(cameraID, msg.Frame)
				reg.Broadcast(dto.VideoFrameMessage{
					Type:     dto.TypeVideoFrame,
					CameraID: cameraID,
					Frame:    msg.Frame,
				})
				m.FramesForwarded.Add(1)

			default:
				// Unknown tags are ignored; the connection stays up.
			}
		}
	}
}

// DispatcherWebsocketHandler upgrades a dispatcher connection. Inbound
// confirm/reject decisions are logged and counted; there is no alert
// store to update.
func DispatcherWebsocketHandler(reg *registry.Registry, m *metrics.Metrics, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		conn.SetPongHandler(func(appData string) error {
			conn.SetReadDeadline(time.Now().Add(readTimeout))
			return nil
		})
		defer conn.Close()

		reg.RegisterDispatcher(conn)
		defer reg.UnregisterDispatcher(conn)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				logger.Info("Dispatcher read ended: %v", err)
				break
			}
			conn.SetReadDeadline(time.Now().Add(readTimeout))

			var msg dto.DispatcherMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Warning("Dispatcher sent malformed message: %v", err)
				continue
			}

			switch msg.Type {
			case dto.TypeConfirm, dto.TypeReject:
				m.Decisions.Add(1)
				logger.Info("Decision: %s for %s (dispatcher: %s)", msg.Type, msg.IncidentID, msg.DispatcherID)

			default:
				// Unknown tags are ignored; the connection stays up.
			}
		}
	}
}
