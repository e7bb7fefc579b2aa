// Package provider normalizes N LLM backends behind one generate-message
// contract (spec.md §4.2) and implements the Provider Registry.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// TokenUsage reports token accounting for one generateMessage call.
type TokenUsage struct {
	TotalTokens int
}

// GenerateResult is the outcome of one provider call (spec.md §4.2).
type GenerateResult struct {
	ContentBlocks []types.ContentBlock
	TokenUsage    TokenUsage
}

// Provider is the capability every LLM backend implements: one
// generate-message call. Cancellation rides on ctx rather than a separate
// token parameter — idiomatic Go for the cooperative-abort semantics
// spec.md §4.2 describes.
//
// Implementations MUST respect ctx (terminate the in-flight call on
// cancellation), MUST return an empty ContentBlocks slice only when the
// model truly produced nothing, and MUST surface cooperative cancellation
// as an *Interrupt rather than a generic error.
type Provider interface {
	ID() types.Provider
	GenerateMessage(ctx context.Context, systemPrompt string, messages []types.Message, modelName string, toolsEnabled bool) (*GenerateResult, error)
}

// InterruptName is the distinguished error identity spec.md §4.7/§7/§8
// requires the Interrupt/Retry Controller to recognize "by name or message".
const InterruptName = "BytebotAgentInterrupt"

// Interrupt is raised by a Provider when generation is aborted via
// cooperative cancellation (spec.md §4.2, §7).
type Interrupt struct {
	Reason string
}

func (i *Interrupt) Error() string {
	if i.Reason != "" {
		return i.Reason
	}
	return InterruptName
}

// IsInterrupt classifies err as a cooperative-abort Interrupt: either an
// *Interrupt value, or any error whose message is exactly InterruptName
// (spec.md §4.7: "name equals ... or identical message").
func IsInterrupt(err error) bool {
	if err == nil {
		return false
	}
	var in *Interrupt
	if errors.As(err, &in) {
		return true
	}
	return err.Error() == InterruptName
}

// Registry maps a provider tag to a Provider implementation (spec.md §4.2,
// §9: "a registry keyed by provider tag, not inheritance").
type Registry struct {
	mu        sync.RWMutex
	providers map[types.Provider]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[types.Provider]Provider)}
}

// Register adds or replaces a provider under its own ID() tag.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Resolve looks up a provider by tag. When no provider is registered for
// the tag, it returns ErrNoProvider wrapping the tag, which the iteration
// loop (spec.md §4.8 step 5) turns into a FAILED transition.
func (r *Registry) Resolve(tag types.Provider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[tag]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoProvider, tag)
	}
	return p, nil
}

// ErrNoProvider is the sentinel wrapped with the missing tag by Resolve,
// producing the exact message spec.md §4.2 specifies: "no service for
// provider <tag>".
var ErrNoProvider = errors.New("no service for provider")
