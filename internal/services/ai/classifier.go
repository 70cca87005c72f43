package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/syedak1/dispatch-ai/internal/dto"
)

const classifierPrompt = `You are an emergency incident classifier for a 911 dispatch system.

You receive text descriptions from a live video feed. Your job is to:
1. Determine if this is an emergency
2. Classify the incident type
3. Assess severity and urgency
4. Decide which response teams to activate

INCIDENT TYPES:
- FIRE: Smoke, flames, burning, fire hazards
- EMS: Medical emergencies, injuries, unconscious persons, health crises
- POLICE: Crime, violence, suspicious activity, traffic accidents needing police
- MULTI: Requires multiple response types (e.g., car crash with injuries and fire)
- NONE: No emergency detected, normal activity

SEVERITY LEVELS:
- LOW: Minor incident, no immediate danger
- MEDIUM: Moderate concern, should be addressed soon
- HIGH: Serious incident, prompt response needed
- CRITICAL: Life-threatening, immediate response required

URGENCY LEVELS:
- ROUTINE: Can wait, schedule as available
- SOON: Should respond within minutes
- IMMEDIATE: Drop everything, respond now

RULES:
- Use ONLY facts from the input text
- If uncertain, mark confidence lower and escalate severity
- Do NOT invent or assume details not in the text
- When in doubt, it's better to over-respond than under-respond

Respond with ONLY valid JSON (no markdown, no explanation):
{
  "incident_type": "FIRE|POLICE|EMS|MULTI|NONE",
  "severity": "LOW|MEDIUM|HIGH|CRITICAL",
  "urgency": "ROUTINE|SOON|IMMEDIATE",
  "confidence": 0.0-1.0,
  "reasoning": "Brief 1-2 sentence explanation",
  "activate_agents": ["FIRE", "EMS", "POLICE"]
}

If incident_type is NONE, activate_agents should be empty [].`

// Classifier turns compressed scene text into a Classification verdict.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

// Classify runs the classification prompt. On error the caller degrades
// to FallbackClassification: a cycle is never dropped, because
// under-triage is worse than a low-confidence guess.
func (c *Classifier) Classify(ctx context.Context, text string) (dto.Classification, error) {
	prompt := classifierPrompt + "\n\n--- VIDEO DESCRIPTION ---\n" + text + "\n--- END DESCRIPTION ---"

	raw, err := c.client.GenerateText(ctx, prompt)
	if err != nil {
		return dto.Classification{}, err
	}

	var result dto.Classification
	if err := json.Unmarshal([]byte(stripFences(raw)), &result); err != nil {
		return dto.Classification{}, fmt.Errorf("malformed classifier response: %w", err)
	}
	if result.IncidentType == "" {
		return dto.Classification{}, fmt.Errorf("classifier response missing incident_type")
	}

	result.IncidentType = strings.ToUpper(result.IncidentType)
	if result.IncidentType == dto.IncidentNone {
		result.ActivateAgents = nil
	}
	return result, nil
}

// FallbackClassification is the single degraded verdict used for every
// classifier failure. EMS is activated so a possible medical emergency
// is never silently dropped.
func FallbackClassification(reason string) dto.Classification {
	return dto.Classification{
		IncidentType:   dto.IncidentUnknown,
		Severity:       dto.SeverityMedium,
		Urgency:        dto.UrgencySoon,
		Confidence:     0.3,
		Reasoning:      reason,
		ActivateAgents: []string{dto.AgentEMS},
	}
}
