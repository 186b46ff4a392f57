package scoring

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// PromptManager loads the scoring prompt templates embedded at compile time.
type PromptManager struct {
	prompts map[string]string // mode -> complete prompt template
}

type promptTemplate struct {
	BasePrompt string `yaml:"base_prompt"`
	Prompt     string `yaml:"prompt"`
}

func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{prompts: make(map[string]string)}
	if err := pm.loadPrompts(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	return pm, nil
}

// BuildScorePrompt renders the scoring prompt for one finished session.
func (pm *PromptManager) BuildScorePrompt(req *Request) (string, error) {
	tmpl, exists := pm.prompts["score_interview"]
	if !exists {
		return "", fmt.Errorf("template not found: score_interview")
	}

	var transcript strings.Builder
	for _, turn := range req.Transcript {
		speaker := "Candidate"
		if turn.Speaker == "assistant" {
			speaker = "Interviewer"
		}
		transcript.WriteString(speaker)
		transcript.WriteString(": ")
		transcript.WriteString(turn.Text)
		transcript.WriteString("\n")
	}

	result := strings.ReplaceAll(tmpl, "{{.Role}}", defaultIfEmpty(req.Role, "General"))
	result = strings.ReplaceAll(result, "{{.Experience}}", defaultIfEmpty(req.Experience, "General"))
	result = strings.ReplaceAll(result, "{{.Difficulty}}", defaultIfEmpty(req.DifficultyLevel, "Medium"))
	result = strings.ReplaceAll(result, "{{.TechStack}}", strings.Join(req.TechStack, ", "))
	result = strings.ReplaceAll(result, "{{.Transcript}}", transcript.String())
	return result, nil
}

func (pm *PromptManager) loadPrompts() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		var tmpl promptTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}

		var full strings.Builder
		if tmpl.BasePrompt != "" {
			full.WriteString(tmpl.BasePrompt)
			full.WriteString("\n\n")
		}
		full.WriteString(tmpl.Prompt)
		pm.prompts[strings.TrimSuffix(entry.Name(), ".yaml")] = full.String()
	}
	return nil
}

func defaultIfEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
