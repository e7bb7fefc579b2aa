// Package model implements the Model Descriptor Resolver (spec.md §4.3): a
// total coercion function turning an arbitrary persisted "model" value into
// a canonical ModelDescriptor. No runtime reflection beyond a discriminated
// decode of the raw JSON shape (spec.md §9).
package model

import (
	"encoding/json"
	"strings"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// DefaultDescriptor is returned whenever the persisted value cannot be
// interpreted as a name or a {provider, name} object (spec.md §4.3 rule 4).
var DefaultDescriptor = types.ModelDescriptor{
	Provider: types.ProviderOpenAI,
	Name:     "gpt-4.1-mini",
	Title:    "gpt-4.1-mini",
}

// shape mirrors the subset of fields a persisted model object may carry.
// Decoding into this struct and checking which fields are non-empty is the
// "discriminated-union decode" spec.md §9 calls for.
type shape struct {
	Provider      string          `json:"provider"`
	Name          string          `json:"name"`
	Title         string          `json:"title"`
	ContextWindow json.RawMessage `json:"contextWindow"`
}

// Resolve implements the resolver rules of spec.md §4.3, applied in order.
// Resolve is total: every input, including nil or malformed JSON, yields a
// descriptor with a known provider tag (spec.md §8 P5).
func Resolve(raw json.RawMessage) types.ModelDescriptor {
	if len(raw) == 0 {
		return DefaultDescriptor
	}

	// A bare JSON string: "claude-3-sonnet" (rule 3).
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return fromName(asString)
	}

	// An object: {provider, name, title?, contextWindow?} or {name} (rules 1, 2).
	var s shape
	if err := json.Unmarshal(raw, &s); err == nil && s.Name != "" {
		if s.Provider != "" {
			return types.ModelDescriptor{
				Provider:      types.Provider(s.Provider),
				Name:          s.Name,
				Title:         orDefault(s.Title, s.Name),
				ContextWindow: parseContextWindow(s.ContextWindow),
			}
		}
		d := fromName(s.Name)
		d.Title = s.Name
		return d
	}

	// Rule 4: numbers, booleans, arrays, empty objects, null, invalid JSON.
	return DefaultDescriptor
}

// ResolveAny is a convenience wrapper for callers holding an already-decoded
// Go value (string, map[string]any, or nil) rather than raw JSON bytes —
// the shape a store layer may hand back after its own JSON decode.
func ResolveAny(v any) types.ModelDescriptor {
	switch val := v.(type) {
	case nil:
		return DefaultDescriptor
	case string:
		return fromName(val)
	case json.RawMessage:
		return Resolve(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return DefaultDescriptor
		}
		return Resolve(encoded)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseContextWindow(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return &n
}

// fromName infers a provider from a bare model name's prefix (rule 2/3).
func fromName(name string) types.ModelDescriptor {
	if name == "" {
		return DefaultDescriptor
	}
	return types.ModelDescriptor{
		Provider: inferProvider(name),
		Name:     name,
		Title:    name,
	}
}

func inferProvider(name string) types.Provider {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "claude"):
		return types.ProviderAnthropic
	case strings.HasPrefix(lower, "gemini"):
		return types.ProviderGoogle
	case strings.HasPrefix(lower, "gpt-") || strings.Contains(lower, "openai"):
		return types.ProviderOpenAI
	default:
		return types.ProviderProxy
	}
}
