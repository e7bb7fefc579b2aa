package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

func TestResolve_BareStringName(t *testing.T) {
	d := Resolve(json.RawMessage(`"claude-3-5-sonnet"`))
	assert.Equal(t, types.ProviderAnthropic, d.Provider)
	assert.Equal(t, "claude-3-5-sonnet", d.Name)
	assert.Equal(t, "claude-3-5-sonnet", d.Title)
}

func TestResolve_ProviderInferenceByPrefix(t *testing.T) {
	cases := map[string]types.Provider{
		"claude-opus-4":  types.ProviderAnthropic,
		"gemini-1.5-pro": types.ProviderGoogle,
		"gpt-4.1":        types.ProviderOpenAI,
		"self-hosted-llm": types.ProviderProxy,
	}
	for name, want := range cases {
		got := fromName(name)
		assert.Equal(t, want, got.Provider, "name=%s", name)
	}
}

func TestResolve_FullObject(t *testing.T) {
	raw := json.RawMessage(`{"provider":"openai","name":"gpt-4.1-mini","title":"GPT 4.1 Mini","contextWindow":128000}`)
	d := Resolve(raw)
	assert.Equal(t, types.ProviderOpenAI, d.Provider)
	assert.Equal(t, "gpt-4.1-mini", d.Name)
	assert.Equal(t, "GPT 4.1 Mini", d.Title)
	assert.NotNil(t, d.ContextWindow)
	assert.Equal(t, 128000, *d.ContextWindow)
}

func TestResolve_NameOnlyObject(t *testing.T) {
	raw := json.RawMessage(`{"name":"gemini-2.0-flash"}`)
	d := Resolve(raw)
	assert.Equal(t, types.ProviderGoogle, d.Provider)
	assert.Equal(t, "gemini-2.0-flash", d.Title)
}

func TestResolve_MalformedFallsBackToDefault(t *testing.T) {
	cases := []json.RawMessage{
		nil,
		json.RawMessage(`null`),
		json.RawMessage(`42`),
		json.RawMessage(`true`),
		json.RawMessage(`[]`),
		json.RawMessage(`{}`),
		json.RawMessage(`not json`),
	}
	for _, raw := range cases {
		got := Resolve(raw)
		assert.Equal(t, DefaultDescriptor, got, "input=%s", string(raw))
	}
}

func TestContextWindowOr(t *testing.T) {
	d := types.ModelDescriptor{}
	assert.Equal(t, 200000, d.ContextWindowOr(200000))

	window := 50000
	d.ContextWindow = &window
	assert.Equal(t, 50000, d.ContextWindowOr(200000))
}
