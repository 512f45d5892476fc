package app

import (
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringService = "carry"

// ModelInfo describes a known model. ContextWindow records the model's
// advertised limit; compaction does not consult it.
type ModelInfo struct {
	Name          string
	Provider      string
	ContextWindow int
}

var knownModels = []ModelInfo{
	{Name: "claude-opus-4-20250514", Provider: "anthropic", ContextWindow: 200_000},
	{Name: "claude-sonnet-4-20250514", Provider: "anthropic", ContextWindow: 200_000},
	{Name: "claude-3-5-haiku-20241022", Provider: "anthropic", ContextWindow: 200_000},
}

type ModelRegistry struct{}

func (ModelRegistry) Models() []ModelInfo {
	out := make([]ModelInfo, len(knownModels))
	copy(out, knownModels)
	return out
}

func (ModelRegistry) Lookup(model string) (ModelInfo, bool) {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, info := range knownModels {
		if strings.ToLower(info.Name) == m {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// GetAPIKey resolves the key for a model: keyring first, then environment.
// Returns "" when no key is configured.
func (r ModelRegistry) GetAPIKey(model string) string {
	info, ok := r.Lookup(model)
	provider := "anthropic"
	if ok {
		provider = info.Provider
	}
	if key, err := keyring.Get(keyringService, provider); err == nil && key != "" {
		return key
	}
	for _, env := range []string{"CARRY_API_KEY", "ANTHROPIC_API_KEY"} {
		if key := strings.TrimSpace(os.Getenv(env)); key != "" {
			return key
		}
	}
	return ""
}

// SetAPIKey stores the key in the OS keyring.
func (r ModelRegistry) SetAPIKey(model, key string) error {
	provider := "anthropic"
	if info, ok := r.Lookup(model); ok {
		provider = info.Provider
	}
	return keyring.Set(keyringService, provider, key)
}
