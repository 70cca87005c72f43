package triage

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syedak1/dispatch-ai/internal/dto"
	"github.com/syedak1/dispatch-ai/internal/logger"
	"github.com/syedak1/dispatch-ai/internal/metrics"
	"github.com/syedak1/dispatch-ai/internal/services/ai"
	"github.com/syedak1/dispatch-ai/internal/services/storage"
)

// Compressor shrinks raw buffered text. Errors degrade to the raw text.
type Compressor interface {
	Compress(ctx context.Context, text string) (string, error)
}

// Classifier produces the incident verdict for one cycle. Errors degrade
// to ai.FallbackClassification.
type Classifier interface {
	Classify(ctx context.Context, text string) (dto.Classification, error)
}

// Agent is one specialist analysis; failures are isolated per agent.
type Agent interface {
	Name() string
	Analyze(ctx context.Context, text string) (dto.AgentReport, error)
}

// Broadcaster delivers messages to connected dispatchers and returns the
// number of connections pruned on failed sends.
type Broadcaster interface {
	Broadcast(msg interface{}) int
}

// SnapshotStore persists the snapshot attached to an alert. Optional.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// AlertPublisher mirrors alerts to an external sink. Optional.
type AlertPublisher interface {
	PublishAlert(alert dto.Alert) error
}

// Pipeline runs one triage cycle per buffer flush: compress, classify,
// fan out to the activated specialist agents, assemble the alert, and
// broadcast it. Cycles are detached from the ingestion path and tracked
// so shutdown can drain them.
type Pipeline struct {
	buffers    *storage.BufferService
	broadcast  Broadcaster
	compressor Compressor
	classifier Classifier
	agents     []Agent
	snapshots  SnapshotStore  // may be nil
	publisher  AlertPublisher // may be nil
	metrics    *metrics.Metrics
	logger     *logger.Logger
	rawLimit   int

	wg sync.WaitGroup
}

func NewPipeline(
	buffers *storage.BufferService,
	broadcast Broadcaster,
	compressor Compressor,
	classifier Classifier,
	agents []Agent,
	snapshots SnapshotStore,
	publisher AlertPublisher,
	m *metrics.Metrics,
	logger *logger.Logger,
	rawLimit int,
) *Pipeline {
	if rawLimit <= 0 {
		rawLimit = 500
	}
	return &Pipeline{
		buffers:    buffers,
		broadcast:  broadcast,
		compressor: compressor,
		classifier: classifier,
		agents:     agents,
		snapshots:  snapshots,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		rawLimit:   rawLimit,
	}
}

// Spawn launches one detached triage cycle for the camera. It returns
// immediately; ingestion is never blocked on external calls. A camera
// disconnect does not cancel an in-flight cycle.
func (p *Pipeline) Spawn(cameraID string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runCycle(context.Background(), cameraID)
	}()
}

// Wait blocks until all in-flight cycles finish.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) runCycle(ctx context.Context, cameraID string) {
	res, ok := p.buffers.Flush(cameraID)
	if !ok || len(res.Fragments) == 0 {
		p.metrics.EmptyFlushes.Add(1)
		return
	}
	p.metrics.Flushes.Add(1)

	lines := make([]string, 0, len(res.Fragments))
	for _, frag := range res.Fragments {
		lines = append(lines, frag.Text)
	}
	raw := strings.Join(lines, "\n")

	snapshot := res.LastSnapshot
	if snapshot == "" {
		snapshot = res.Fragments[len(res.Fragments)-1].Snapshot
	}

	p.logger.Info("[%s] Processing %d descriptions", cameraID, len(res.Fragments))

	compressed, err := p.compressor.Compress(ctx, raw)
	if err != nil {
		p.logger.Warning("[%s] Compression failed, using raw text: %v", cameraID, err)
		p.metrics.CompressorFailures.Add(1)
		compressed = raw
	}

	classification, err := p.classifier.Classify(ctx, compressed)
	if err != nil {
		p.logger.Warning("[%s] Classification failed: %v", cameraID, err)
		p.metrics.ClassifierFailures.Add(1)
		classification = ai.FallbackClassification(fmt.Sprintf("Classification error: %v", err))
	}

	if classification.IncidentType == dto.IncidentNone {
		p.logger.Info("[%s] No emergency", cameraID)
		p.metrics.CyclesNoIncident.Add(1)
		return
	}

	p.logger.Info("[%s] EMERGENCY: %s", cameraID, classification.IncidentType)

	reports := p.fanOut(ctx, classification.ActivateAgents, compressed)
	alert := p.buildAlert(cameraID, classification, compressed, snapshot, res, reports)

	if p.snapshots != nil && alert.Snapshot != "" {
		p.uploadSnapshot(ctx, &alert)
	}

	p.logger.Info("[%s] Sending alert: %s", cameraID, alert.ID)
	pruned := p.broadcast.Broadcast(dto.AlertMessage{Type: dto.TypeAlert, Data: alert})
	p.metrics.BroadcastErrors.Add(uint64(pruned))
	p.metrics.AlertsSent.Add(1)

	if p.publisher != nil {
		if err := p.publisher.PublishAlert(alert); err != nil {
			p.logger.Warning("[%s] Alert uplink publish failed: %v", cameraID, err)
		}
	}
}

// fanOut runs the activated agents concurrently against the compressed
// text. Each invocation is isolated: one failure becomes an error report
// for that agent only. Agents not activated are recorded without being
// invoked, and all three report keys are always present.
func (p *Pipeline) fanOut(ctx context.Context, activate []string, text string) map[string]dto.AgentReport {
	wanted := make(map[string]bool, len(activate))
	for _, name := range activate {
		wanted[strings.ToUpper(strings.TrimSpace(name))] = true
	}

	reports := make(map[string]dto.AgentReport, 3)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, agent := range p.agents {
		if !wanted[agent.Name()] {
			continue
		}
		wg.Add(1)
		go func(a Agent) {
			defer wg.Done()
			report, err := a.Analyze(ctx, text)
			if err != nil {
				p.logger.Error("Agent %s failed: %v", a.Name(), err)
				p.metrics.AgentFailures.Add(1)
				report = dto.AgentReport{Activated: true, Error: err.Error()}
			}
			mu.Lock()
			reports[strings.ToLower(a.Name())] = report
			mu.Unlock()
		}(agent)
	}
	wg.Wait()

	for _, key := range []string{dto.ReportKeyFire, dto.ReportKeyEMS, dto.ReportKeyPolice} {
		if _, ok := reports[key]; !ok {
			reports[key] = dto.AgentReport{Activated: false}
		}
	}
	return reports
}

func (p *Pipeline) buildAlert(
	cameraID string,
	classification dto.Classification,
	compressed, snapshot string,
	res storage.FlushResult,
	reports map[string]dto.AgentReport,
) dto.Alert {
	now := res.FlushedAt

	summary := classification.Reasoning
	if summary == "" {
		summary = "Incident detected"
	}

	agents := classification.ActivateAgents
	if agents == nil {
		agents = []string{}
	}

	return dto.Alert{
		ID:        newAlertID(cameraID, now),
		Timestamp: now.Format(time.RFC3339),
		CameraID:  cameraID,
		Classification: dto.AlertClassification{
			IncidentType: classification.IncidentType,
			Severity:     classification.Severity,
			Urgency:      classification.Urgency,
			Confidence:   classification.Confidence,
		},
		Summary:         summary,
		AgentsActivated: agents,
		AgentReports:    reports,
		Clip: dto.ClipInfo{
			StartTime: res.WindowStart.Format(time.RFC3339),
			EndTime:   now.Format(time.RFC3339),
		},
		Status:     dto.StatusPendingReview,
		RawContext: truncateRunes(compressed, p.rawLimit),
		Snapshot:   snapshot,
	}
}

// newAlertID derives the id from camera and flush time, with a random
// suffix so overlapping cycles flushed within the same second still get
// unique ids.
func newAlertID(cameraID string, t time.Time) string {
	return fmt.Sprintf("INC_%s_%d_%s", cameraID, t.Unix(), uuid.NewString()[:8])
}

func (p *Pipeline) uploadSnapshot(ctx context.Context, alert *dto.Alert) {
	data, contentType, err := decodeSnapshot(alert.Snapshot)
	if err != nil {
		p.logger.Warning("[%s] Snapshot not uploadable: %v", alert.CameraID, err)
		return
	}

	uploadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	key := fmt.Sprintf("%s/%s.jpg", alert.CameraID, alert.ID)
	url, err := p.snapshots.SaveSnapshot(uploadCtx, key, data, contentType)
	if err != nil {
		p.logger.Warning("[%s] Snapshot upload failed: %v", alert.CameraID, err)
		return
	}
	alert.SnapshotURL = url
}

// decodeSnapshot accepts a data URL ("data:image/jpeg;base64,...") or a
// bare base64 payload.
func decodeSnapshot(snapshot string) ([]byte, string, error) {
	contentType := ""
	payload := snapshot

	if strings.HasPrefix(snapshot, "data:") {
		comma := strings.Index(snapshot, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data url")
		}
		meta := snapshot[len("data:"):comma]
		payload = snapshot[comma+1:]
		if semi := strings.Index(meta, ";"); semi >= 0 {
			contentType = meta[:semi]
		} else {
			contentType = meta
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding base64: %w", err)
	}
	return data, contentType, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
