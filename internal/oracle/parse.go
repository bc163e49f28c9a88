package oracle

import (
	"encoding/json"
	"strings"
)

// Action is the trading action extracted from an oracle reply.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionWait Action = "WAIT"
)

// Decision is the structured payload expected inside an oracle reply.
type Decision struct {
	// Decision is BUY, SELL or WAIT.
	Decision Action `json:"decision"`
	// Percentage sizes the action: percent of equity for BUY, percent of the
	// held position for SELL. Clamped into [0, 100].
	Percentage float64 `json:"percentage"`
	// Reasoning is free text carried through for logging.
	Reasoning string `json:"reasoning"`
}

// ParseDecision extracts a Decision from raw oracle output. Oracles wrap their
// JSON in prose or markdown fences more often than not, so the parser scans
// for the first balanced JSON object instead of decoding the whole reply. Any
// malformed or unrecognizable reply parses as WAIT with ok=false; a malformed
// oracle answer must never become a fault.
func ParseDecision(text string) (Decision, bool) {
	payload, found := extractJSONObject(text)
	if !found {
		return waitDecision(), false
	}

	var decision Decision
	if err := json.Unmarshal([]byte(payload), &decision); err != nil {
		return waitDecision(), false
	}

	decision.Decision = Action(strings.ToUpper(strings.TrimSpace(string(decision.Decision))))

	switch decision.Decision {
	case ActionBuy, ActionSell:
	case ActionWait:
		decision.Percentage = 0

		return decision, true
	default:
		return waitDecision(), false
	}

	if decision.Percentage < 0 {
		decision.Percentage = 0
	}

	if decision.Percentage > 100 {
		decision.Percentage = 100
	}

	return decision, true
}

func waitDecision() Decision {
	return Decision{Decision: ActionWait, Percentage: 0, Reasoning: ""}
}

// extractJSONObject returns the first balanced {...} block in the text.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
