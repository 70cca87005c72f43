package dto

// Incident types produced by the classifier.
const (
	IncidentFire    = "FIRE"
	IncidentPolice  = "POLICE"
	IncidentEMS     = "EMS"
	IncidentMulti   = "MULTI"
	IncidentNone    = "NONE"
	IncidentUnknown = "UNKNOWN" // degraded classification, still alerts
)

// Severity levels.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Urgency levels.
const (
	UrgencyRoutine   = "ROUTINE"
	UrgencySoon      = "SOON"
	UrgencyImmediate = "IMMEDIATE"
)

// Specialist agent names accepted in activate_agents.
const (
	AgentFire   = "FIRE"
	AgentEMS    = "EMS"
	AgentPolice = "POLICE"
)

// Classification is the classifier verdict for one triage cycle.
type Classification struct {
	IncidentType   string   `json:"incident_type"`
	Severity       string   `json:"severity"`
	Urgency        string   `json:"urgency"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning,omitempty"`
	ActivateAgents []string `json:"activate_agents,omitempty"`
}
