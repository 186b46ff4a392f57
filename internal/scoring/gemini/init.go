package gemini

import "takeint/internal/scoring"

// Register Gemini provider on package import
func init() {
	scoring.RegisterProvider("gemini", func() (scoring.Provider, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}
