package scoring

import (
	"encoding/json"
	"strings"
)

// ParseResult decodes a model response into a Result. Models occasionally
// wrap the JSON in markdown fences or prose, so the parser extracts the
// outermost object before unmarshalling. Scores are clamped to 0..100.
func ParseResult(text string) (*Result, error) {
	raw := extractJSON(text)

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, &ProviderError{
			Provider: "scoring",
			Code:     ErrCodeInvalidInput,
			Message:  "response was not valid JSON",
			Err:      err,
		}
	}
	if result.Summary == "" {
		return nil, &ProviderError{
			Provider: "scoring",
			Code:     ErrCodeInvalidInput,
			Message:  "response missing summary",
		}
	}

	result.ProblemSolving = clampScore(result.ProblemSolving)
	result.SystemDesign = clampScore(result.SystemDesign)
	result.CommunicationSkills = clampScore(result.CommunicationSkills)
	result.TechnicalAccuracy = clampScore(result.TechnicalAccuracy)
	result.BehavioralResponses = clampScore(result.BehavioralResponses)
	result.TimeManagement = clampScore(result.TimeManagement)
	return &result, nil
}

func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
