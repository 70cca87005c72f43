package dto

// AgentReport is one specialist agent's contribution to an alert.
// Non-activated agents carry Activated=false and nothing else.
type AgentReport struct {
	Activated bool     `json:"activated"`
	KeyFacts  []string `json:"key_facts,omitempty"`
	Hazards   []string `json:"hazards,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
	Unknowns  []string `json:"unknowns,omitempty"`
	Error     string   `json:"error,omitempty"`
}
