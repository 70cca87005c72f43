package dto

// StatusPendingReview is the only alert status this service emits;
// confirm/reject decisions are logged but never mutate an alert.
const StatusPendingReview = "PENDING_REVIEW"

// Lowercase keys of Alert.AgentReports; all three are always present.
const (
	ReportKeyFire   = "fire"
	ReportKeyEMS    = "ems"
	ReportKeyPolice = "police"
)

// ClipInfo marks the buffer window an alert covers. The URL is filled
// in by the clip-capture service, not by this backend.
type ClipInfo struct {
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	URL       string `json:"url,omitempty"`
}

// AlertClassification is the classification block embedded in an alert.
type AlertClassification struct {
	IncidentType string  `json:"incident_type"`
	Severity     string  `json:"severity"`
	Urgency      string  `json:"urgency"`
	Confidence   float64 `json:"confidence"`
}

// Alert is the terminal artifact of one triage cycle. It exists only as
// the outbound payload; nothing is retained after broadcast.
type Alert struct {
	ID              string                 `json:"id"`
	Timestamp       string                 `json:"timestamp"`
	CameraID        string                 `json:"camera_id"`
	Classification  AlertClassification    `json:"classification"`
	Summary         string                 `json:"summary"`
	AgentsActivated []string               `json:"agents_activated"`
	AgentReports    map[string]AgentReport `json:"agent_reports"`
	Clip            ClipInfo               `json:"clip"`
	Status          string                 `json:"status"`
	RawContext      string                 `json:"raw_context"`
	Snapshot        string                 `json:"snapshot,omitempty"`
	SnapshotURL     string                 `json:"snapshot_url,omitempty"`
}
