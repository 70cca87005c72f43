package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/syedak1/dispatch-ai/internal/config"
	"github.com/syedak1/dispatch-ai/internal/dto"
	"github.com/syedak1/dispatch-ai/internal/logger"
	"github.com/syedak1/dispatch-ai/internal/metrics"
	"github.com/syedak1/dispatch-ai/internal/routes"
	"github.com/syedak1/dispatch-ai/internal/services/registry"
	"github.com/syedak1/dispatch-ai/internal/services/storage"
	"github.com/syedak1/dispatch-ai/internal/services/triage"
)

type identityCompressor struct{}

func (identityCompressor) Compress(ctx context.Context, text string) (string, error) {
	return text, nil
}

type fixedClassifier struct {
	result dto.Classification
}

func (c fixedClassifier) Classify(ctx context.Context, text string) (dto.Classification, error) {
	return c.result, nil
}

type fixedAgent struct {
	name string
}

func (a fixedAgent) Name() string { return a.name }

func (a fixedAgent) Analyze(ctx context.Context, text string) (dto.AgentReport, error) {
	return dto.AgentReport{Activated: true, KeyFacts: []string{"stub fact"}}, nil
}

type testStack struct {
	server   *httptest.Server
	metrics  *metrics.Metrics
	pipeline *triage.Pipeline
}

func newTestStack(t *testing.T, verdict dto.Classification) *testStack {
	t.Helper()

	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	buffers := storage.NewBufferService(time.Hour)
	reg := registry.NewRegistry(buffers, log)
	m := metrics.New(reg)
	pipeline := triage.NewPipeline(buffers, reg, identityCompressor{}, fixedClassifier{result: verdict},
		[]triage.Agent{fixedAgent{name: dto.AgentFire}, fixedAgent{name: dto.AgentEMS}, fixedAgent{name: dto.AgentPolice}},
		nil, nil, m, log, 500)

	srv := httptest.NewServer(routes.SetupRoutes(reg, buffers, pipeline, m, log))
	t.Cleanup(srv.Close)
	return &testStack{server: srv, metrics: m, pipeline: pipeline}
}

func (s *testStack) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// readEnvelope reads one message and returns its type tag and raw body.
func readEnvelope(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("Malformed envelope %q: %v", data, err)
	}
	return envelope.Type, data
}

func fireVerdict() dto.Classification {
	return dto.Classification{
		IncidentType:   dto.IncidentFire,
		Severity:       dto.SeverityHigh,
		Urgency:        dto.UrgencyImmediate,
		Confidence:     0.9,
		Reasoning:      "Flames visible",
		ActivateAgents: []string{dto.AgentFire},
	}
}

func TestDispatcherReceivesCameraList(t *testing.T) {
	stack := newTestStack(t, fireVerdict())

	cam := stack.dial(t, "/ws/camera/cam1")
	defer cam.Close()

	// The camera registration races the dispatcher dial; poll until the
	// list includes the camera.
	deadline := time.Now().Add(3 * time.Second)
	for {
		disp := stack.dial(t, "/ws/dispatcher")
		msgType, data := readEnvelope(t, disp)
		if msgType != dto.TypeCameraList {
			t.Fatalf("Expected %s first, got %s", dto.TypeCameraList, msgType)
		}
		var list dto.CameraList
		if err := json.Unmarshal(data, &list); err != nil {
			t.Fatalf("Bad camera_list: %v", err)
		}
		disp.Close()
		if len(list.Cameras) == 1 && list.Cameras[0] == "cam1" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("camera_list never included cam1: %v", list.Cameras)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCameraConnectNotifiesDispatchers(t *testing.T) {
	stack := newTestStack(t, fireVerdict())

	disp := stack.dial(t, "/ws/dispatcher")
	if msgType, _ := readEnvelope(t, disp); msgType != dto.TypeCameraList {
		t.Fatalf("Expected camera_list, got %s", msgType)
	}

	cam := stack.dial(t, "/ws/camera/cam7")
	defer cam.Close()

	msgType, data := readEnvelope(t, disp)
	if msgType != dto.TypeCameraConnected {
		t.Fatalf("Expected %s, got %s", dto.TypeCameraConnected, msgType)
	}
	var joined dto.CameraConnected
	if err := json.Unmarshal(data, &joined); err != nil {
		t.Fatalf("Bad camera_connected: %v", err)
	}
	if joined.CameraID != "cam7" {
		t.Errorf("Expected cam7, got %q", joined.CameraID)
	}
}

func TestOvershootAndForceProcessProducesAlert(t *testing.T) {
	stack := newTestStack(t, fireVerdict())

	disp := stack.dial(t, "/ws/dispatcher")
	readEnvelope(t, disp) // camera_list

	cam := stack.dial(t, "/ws/camera/cam1")
	readEnvelope(t, disp) // camera_connected

	for _, text := range []string{"smoke near the exit", "open flames on the roof"} {
		if err := cam.WriteJSON(dto.CameraMessage{Type: dto.TypeOvershootResult, Description: text}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := cam.WriteJSON(dto.CameraMessage{Type: dto.TypeForceProcess}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	msgType, data := readEnvelope(t, disp)
	if msgType != dto.TypeAlert {
		t.Fatalf("Expected alert, got %s", msgType)
	}
	var am dto.AlertMessage
	if err := json.Unmarshal(data, &am); err != nil {
		t.Fatalf("Bad alert message: %v", err)
	}
	alert := am.Data

	if alert.CameraID != "cam1" {
		t.Errorf("Expected cam1, got %q", alert.CameraID)
	}
	if alert.Classification.IncidentType != dto.IncidentFire {
		t.Errorf("Expected FIRE, got %q", alert.Classification.IncidentType)
	}
	if alert.Status != dto.StatusPendingReview {
		t.Errorf("Expected %s, got %q", dto.StatusPendingReview, alert.Status)
	}
	if alert.RawContext != "smoke near the exit\nopen flames on the roof" {
		t.Errorf("Raw context wrong: %q", alert.RawContext)
	}
	if !strings.HasPrefix(alert.ID, "INC_cam1_") {
		t.Errorf("Alert id shape wrong: %q", alert.ID)
	}
	if !alert.AgentReports[dto.ReportKeyFire].Activated {
		t.Error("Fire report not activated")
	}
	if alert.AgentReports[dto.ReportKeyEMS].Activated {
		t.Error("EMS report should not be activated")
	}
}

func TestMalformedMessageKeepsConnectionAlive(t *testing.T) {
	stack := newTestStack(t, fireVerdict())

	disp := stack.dial(t, "/ws/dispatcher")
	readEnvelope(t, disp) // camera_list

	cam := stack.dial(t, "/ws/camera/cam1")
	readEnvelope(t, disp) // camera_connected

	if err := cam.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := cam.WriteJSON(dto.CameraMessage{Type: dto.TypeOvershootResult, Description: "flames"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := cam.WriteJSON(dto.CameraMessage{Type: dto.TypeForceProcess}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if msgType, _ := readEnvelope(t, disp); msgType != dto.TypeAlert {
		t.Fatalf("Expected alert after malformed message, got %s", msgType)
	}
}

func TestVideoFrameForwardedToDispatchers(t *testing.T) {
	stack := newTestStack(t, fireVerdict())

	disp := stack.dial(t, "/ws/dispatcher")
	readEnvelope(t, disp) // camera_list

	cam := stack.dial(t, "/ws/camera/cam1")
	readEnvelope(t, disp) // camera_connected

	if err := cam.WriteJSON(dto.CameraMessage{Type: dto.TypeVideoFrame, Frame: "ZnJhbWU="}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	msgType, data := readEnvelope(t, disp)
	if msgType != dto.TypeVideoFrame {
		t.Fatalf("Expected video_frame, got %s", msgType)
	}
	var frame dto.VideoFrameMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("Bad video_frame: %v", err)
	}
	if frame.CameraID != "cam1" || frame.Frame != "ZnJhbWU=" {
		t.Errorf("Frame not forwarded intact: %+v", frame)
	}
}

func TestDispatcherDecisionCounted(t *testing.T) {
	stack := newTestStack(t, fireVerdict())

	disp := stack.dial(t, "/ws/dispatcher")
	readEnvelope(t, disp) // camera_list

	msg := dto.DispatcherMessage{Type: dto.TypeConfirm, IncidentID: "INC_cam1_1", DispatcherID: "d1"}
	if err := disp.WriteJSON(msg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for stack.metrics.Decisions.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Decision never counted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatusAndHealthEndpoints(t *testing.T) {
	stack := newTestStack(t, fireVerdict())

	cam := stack.dial(t, "/ws/camera/cam1")
	defer cam.Close()

	var status struct {
		Status      string `json:"status"`
		Cameras     int    `json:"cameras"`
		Dispatchers int    `json:"dispatchers"`
	}
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(stack.server.URL + "/")
		if err != nil {
			t.Fatalf("GET / failed: %v", err)
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("Bad status body: %v", err)
		}
		resp.Body.Close()
		if status.Cameras == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Camera never counted: %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status.Status != "running" {
		t.Errorf("Expected running, got %q", status.Status)
	}

	resp, err := http.Get(stack.server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()
	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Bad health body: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("Expected ok, got %q", health["status"])
	}
}
