package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/syedak1/dispatch-ai/internal/dto"
)

const fireAgentPrompt = `You are a Fire Department dispatch assistant.

Given a description of an incident, extract ONLY information relevant to fire response.

RULES:
- Use ONLY facts stated in the input
- Mark anything uncertain with "Unknown: ..."
- Do NOT invent or assume details
- Be concise and actionable

Extract:
1. KEY FACTS: What is actually observed (fire location, size, color of smoke, etc.)
2. HAZARDS: Potential dangers for responders (chemicals, structural damage, trapped persons, etc.)
3. EQUIPMENT: Recommended equipment based on facts (ladder truck, hazmat, etc.)
4. UNKNOWNS: What information is missing but would be useful

Respond with ONLY valid JSON:
{
  "key_facts": ["fact 1", "fact 2"],
  "hazards": ["hazard 1", "hazard 2"],
  "equipment": ["equipment 1", "equipment 2"],
  "unknowns": ["unknown 1", "unknown 2"]
}

Keep each list to 3-5 items maximum. Be specific, not generic.`

const emsAgentPrompt = `You are an EMS (Emergency Medical Services) dispatch assistant.

Given a description of an incident, extract ONLY information relevant to medical response.

RULES:
- Use ONLY facts stated in the input
- Mark anything uncertain with "Unknown: ..."
- Do NOT invent or assume details
- Do NOT diagnose - only describe what is observed
- Be concise and actionable

Extract:
1. KEY FACTS: What is observed about patients (conscious/unconscious, visible injuries, number of patients, etc.)
2. HAZARDS: Scene dangers for medics (traffic, fire, violence, etc.)
3. EQUIPMENT: Recommended medical resources (ALS/BLS, stretcher, trauma kit, etc.)
4. UNKNOWNS: Missing information that would help (patient age, mechanism of injury, etc.)

Respond with ONLY valid JSON:
{
  "key_facts": ["fact 1", "fact 2"],
  "hazards": ["hazard 1", "hazard 2"],
  "equipment": ["equipment 1", "equipment 2"],
  "unknowns": ["unknown 1", "unknown 2"]
}

Keep each list to 3-5 items maximum. Be specific, not generic.`

const policeAgentPrompt = `You are a Police Department dispatch assistant.

Given a description of an incident, extract ONLY information relevant to police response.

RULES:
- Use ONLY facts stated in the input
- Mark anything uncertain with "Unknown: ..."
- Do NOT invent or assume details
- Be concise and actionable

Extract:
1. KEY FACTS: What is observed (number of people involved, vehicles, actions, etc.)
2. HAZARDS: Dangers for officers (weapons visible, aggressive behavior, traffic, etc.)
3. EQUIPMENT: Recommended resources (patrol units, traffic control, K9, etc.)
4. UNKNOWNS: Missing information (suspect descriptions, direction of travel, etc.)

Respond with ONLY valid JSON:
{
  "key_facts": ["fact 1", "fact 2"],
  "hazards": ["hazard 1", "hazard 2"],
  "equipment": ["equipment 1", "equipment 2"],
  "unknowns": ["unknown 1", "unknown 2"]
}

Keep each list to 3-5 items maximum. Be specific, not generic.`

// SpecialistAgent extracts one discipline's view of an incident. The
// three deployed agents differ only in name and prompt.
type SpecialistAgent struct {
	name   string
	prompt string
	client *Client
}

func NewFireAgent(client *Client) *SpecialistAgent {
	return &SpecialistAgent{name: dto.AgentFire, prompt: fireAgentPrompt, client: client}
}

func NewEMSAgent(client *Client) *SpecialistAgent {
	return &SpecialistAgent{name: dto.AgentEMS, prompt: emsAgentPrompt, client: client}
}

func NewPoliceAgent(client *Client) *SpecialistAgent {
	return &SpecialistAgent{name: dto.AgentPolice, prompt: policeAgentPrompt, client: client}
}

func (a *SpecialistAgent) Name() string {
	return a.name
}

// Analyze runs the agent against the compressed incident text. The
// returned report has Activated set; errors are left to the pipeline,
// which records them per agent without failing the cycle.
func (a *SpecialistAgent) Analyze(ctx context.Context, text string) (dto.AgentReport, error) {
	prompt := a.prompt + "\n\n--- INCIDENT DESCRIPTION ---\n" + text + "\n--- END ---"

	raw, err := a.client.GenerateText(ctx, prompt)
	if err != nil {
		return dto.AgentReport{}, err
	}

	var report dto.AgentReport
	if err := json.Unmarshal([]byte(stripFences(raw)), &report); err != nil {
		return dto.AgentReport{}, fmt.Errorf("malformed %s agent response: %w", a.name, err)
	}

	report.Activated = true
	report.Error = ""
	return report, nil
}
