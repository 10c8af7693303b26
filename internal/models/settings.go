package models

import "fmt"

const (
	DefaultTemperature = 0.0
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 1000
)

// ModelSettings carries per-request sampling options. Nil fields fall back to defaults.
type ModelSettings struct {
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"topP"`
	MaxTokens   *int     `json:"maxTokens"`
}

// Resolved are the effective settings sent to the model.
type Resolved struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Resolve fills in defaults. A nil receiver yields the defaults.
func (s *ModelSettings) Resolve() Resolved {
	r := Resolved{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
	}
	if s == nil {
		return r
	}
	if s.Temperature != nil {
		r.Temperature = *s.Temperature
	}
	if s.TopP != nil {
		r.TopP = *s.TopP
	}
	if s.MaxTokens != nil {
		r.MaxTokens = *s.MaxTokens
	}
	return r
}

// Validate rejects values no provider accepts.
func (r Resolved) Validate() error {
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", r.Temperature)
	}
	if r.TopP < 0 || r.TopP > 1 {
		return fmt.Errorf("topP must be between 0 and 1, got %v", r.TopP)
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be positive, got %d", r.MaxTokens)
	}
	return nil
}
