// Package processor implements the Lifecycle Controller and Iteration Loop
// (spec.md §4.1, §4.8): the single-tenant state machine that advances one
// task at a time from RUNNING to a terminal status, one LLM turn per
// iteration, interleaved with lifecycle events (takeover, resume, cancel).
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/alexsharp-ai/bytebot/internal/agent/conversation"
	"github.com/alexsharp-ai/bytebot/internal/agent/dispatcher"
	"github.com/alexsharp-ai/bytebot/internal/agent/model"
	"github.com/alexsharp-ai/bytebot/internal/agent/provider"
	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/summarizer"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
	"github.com/alexsharp-ai/bytebot/internal/logging"
)

// MaxInterruptRetries bounds the bounded-retry policy of spec.md §4.7.
// Left at a higher figure than the computer-tool degradation threshold
// deliberately (spec.md §9 open question a): the two counters are
// unrelated and both are preserved as specified.
const MaxInterruptRetries = 3

// InterruptRetryDelay is the pause between a retried iteration and the one
// before it (spec.md §4.7: "~500 ms").
const InterruptRetryDelay = 500 * time.Millisecond

// InputCapture starts and stops whatever side channel records live user
// input during a takeover (spec.md §6).
type InputCapture interface {
	Start(taskID string)
	Stop()
}

// noopInputCapture is used when the caller wires no real collaborator.
type noopInputCapture struct{}

func (noopInputCapture) Start(string) {}
func (noopInputCapture) Stop()        {}

// taskState is the ephemeral per-task bookkeeping the controller owns and
// discards on any terminal transition (spec.md §4.7, §9).
type taskState struct {
	retryCount int
	dispatcher.TaskState
}

// Processor is the Lifecycle Controller. Its zero value is not usable; use New.
type Processor struct {
	mu            sync.Mutex
	isProcessing  bool
	currentTaskID string
	cancel        context.CancelFunc
	states        map[string]*taskState

	tasks      store.TaskStore
	assembler  *conversation.Assembler
	summarizer *summarizer.Summarizer
	dispatch   *dispatcher.Dispatcher
	providers  *provider.Registry
	input      InputCapture

	systemPrompt string
}

// Config bundles the collaborators a Processor needs (spec.md §6).
type Config struct {
	Tasks        store.TaskStore
	Messages     store.MessageStore
	Summaries    store.SummaryStore
	Providers    *provider.Registry
	Desktop      dispatcher.ComputerToolHandler
	Input        InputCapture
	SystemPrompt string
}

// New constructs a Processor wired to its collaborators.
func New(cfg Config) *Processor {
	input := cfg.Input
	if input == nil {
		input = noopInputCapture{}
	}
	return &Processor{
		states:       make(map[string]*taskState),
		tasks:        cfg.Tasks,
		assembler:    conversation.New(cfg.Messages, cfg.Summaries),
		summarizer:   summarizer.New(cfg.Messages, cfg.Summaries),
		dispatch:     dispatcher.New(cfg.Tasks, cfg.Desktop),
		providers:    cfg.Providers,
		input:        input,
		systemPrompt: cfg.SystemPrompt,
	}
}

// IsProcessing reports the singleton invariant P1: isProcessing ⇔ currentTaskId != "".
func (p *Processor) IsProcessing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isProcessing
}

// CurrentTaskID returns the task currently owning the processor, or "".
func (p *Processor) CurrentTaskID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTaskID
}

// ProcessTask starts processing taskID. If the processor is already busy,
// it logs and returns without queueing (spec.md §4.1).
func (p *Processor) ProcessTask(taskID string) {
	p.mu.Lock()
	if p.isProcessing {
		p.mu.Unlock()
		logging.Infof("[processor] already processing task %s, ignoring request for %s", p.currentTaskID, taskID)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.isProcessing = true
	p.currentTaskID = taskID
	p.cancel = cancel
	p.states[taskID] = &taskState{}
	p.mu.Unlock()

	go p.iterate(ctx, taskID)
}

// OnTakeover handles a task.takeover event (spec.md §4.1).
func (p *Processor) OnTakeover(taskID string) {
	p.mu.Lock()
	if p.isProcessing && p.currentTaskID == taskID && p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.input.Start(taskID)
}

// OnResume handles a task.resume event (spec.md §4.1).
func (p *Processor) OnResume(taskID string) {
	p.mu.Lock()
	if !p.isProcessing || p.currentTaskID != taskID {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	go p.iterate(ctx, taskID)
}

// OnCancel handles a task.cancel event (spec.md §4.1).
func (p *Processor) OnCancel(taskID string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.input.Stop()
	p.clear(taskID)
}

// StopProcessing idempotently tears down singleton state (spec.md §4.1).
func (p *Processor) StopProcessing() {
	p.mu.Lock()
	taskID := p.currentTaskID
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.input.Stop()
	p.clear(taskID)
}

// clear drops per-task ephemeral state and the singleton flags, but only if
// the caller is still the owning task (idempotent against races with a
// subsequent ProcessTask).
func (p *Processor) clear(taskID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentTaskID == taskID {
		p.isProcessing = false
		p.currentTaskID = ""
		p.cancel = nil
	}
	delete(p.states, taskID)
}

func (p *Processor) stateFor(taskID string) *taskState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.states[taskID]
	if !ok {
		st = &taskState{}
		p.states[taskID] = st
	}
	return st
}

// scheduleNext yields control before the next iteration runs, so lifecycle
// events delivered between iterations are observed (spec.md §4.8).
func (p *Processor) scheduleNext(ctx context.Context, taskID string) {
	go p.iterate(ctx, taskID)
}

// scheduleRetry re-runs the iteration after InterruptRetryDelay without
// clearing processing state (spec.md §4.7). Only fires if the processor
// still owns taskID: a cancel handler racing with an in-flight generate call
// clears the singleton state before the Interrupt surfaces, and that must
// not be undone by scheduling another iteration (spec.md §8 Scenario 6).
func (p *Processor) scheduleRetry(ctx context.Context, taskID string) {
	if !p.owns(taskID) {
		p.clear(taskID)
		return
	}
	time.AfterFunc(InterruptRetryDelay, func() {
		if !p.owns(taskID) {
			p.clear(taskID)
			return
		}
		go p.iterate(ctx, taskID)
	})
}

// owns reports whether the processor is still actively processing taskID.
func (p *Processor) owns(taskID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isProcessing && p.currentTaskID == taskID
}

// iterate runs one pass of the loop in spec.md §4.8.
func (p *Processor) iterate(ctx context.Context, taskID string) {
	task, err := p.tasks.FindByID(ctx, taskID)
	if err != nil {
		logging.Errorf("[processor] task %s: lookup failed: %v", taskID, err)
		p.clear(taskID)
		return
	}
	if task.Status != types.StatusRunning {
		p.clear(taskID)
		return
	}

	state := p.stateFor(taskID)

	conv, err := p.assembler.Assemble(ctx, taskID, state.ComputerToolsDisabled)
	if err != nil {
		p.fail(ctx, taskID, err)
		return
	}

	descriptor := model.Resolve(task.Model)

	prov, err := p.providers.Resolve(descriptor.Provider)
	if err != nil {
		p.fail(ctx, taskID, err)
		return
	}

	result, err := prov.GenerateMessage(ctx, p.systemPrompt, conv, descriptor.Name, true)
	if err != nil {
		if provider.IsInterrupt(err) {
			p.handleInterrupt(ctx, taskID, state)
			return
		}
		p.fail(ctx, taskID, err)
		return
	}

	if len(result.ContentBlocks) == 0 {
		p.failWith(ctx, taskID, "No content blocks returned from model")
		return
	}

	// A successful turn resets the bound: §4.7's retry budget guards
	// consecutive Interrupts, not a lifetime total (spec.md §8 Scenario 4).
	state.retryCount = 0

	assistantMsg, err := p.persistAssistantMessage(ctx, taskID, result.ContentBlocks)
	if err != nil {
		p.fail(ctx, taskID, err)
		return
	}

	fullConv := append(append([]types.Message(nil), conv...), *assistantMsg)
	p.summarizer.MaybeSummarize(ctx, prov, taskID, descriptor, fullConv, result.TokenUsage.TotalTokens)

	outcome := p.dispatch.Dispatch(ctx, task, result.ContentBlocks, &state.TaskState)
	p.applyOutcome(ctx, taskID, outcome)

	if outcome.Degraded {
		p.clear(taskID)
		return
	}

	if p.IsProcessing() && p.CurrentTaskID() == taskID {
		p.scheduleNext(ctx, taskID)
	}
}

func (p *Processor) persistAssistantMessage(ctx context.Context, taskID string, blocks []types.ContentBlock) (*types.Message, error) {
	return p.messages().Create(ctx, store.MessageCreate{TaskID: taskID, Role: types.RoleAssistant, Content: blocks})
}

// messages exposes the MessageStore the assembler/summarizer already hold,
// so the iteration loop does not need its own separate reference.
func (p *Processor) messages() store.MessageStore { return p.assembler.Messages }

func (p *Processor) applyOutcome(ctx context.Context, taskID string, outcome dispatcher.Outcome) {
	if len(outcome.ResultBlocks) > 0 {
		if _, err := p.messages().Create(ctx, store.MessageCreate{
			TaskID:  taskID,
			Role:    types.RoleUser,
			Content: outcome.ResultBlocks,
		}); err != nil {
			logging.Errorf("[processor] task %s: persist tool results: %v", taskID, err)
		}
	}

	if outcome.Degraded {
		errMsg := types.TruncateError(outcome.DegradedError)
		status := types.StatusNeedsHelp
		if err := p.tasks.Update(ctx, taskID, store.TaskUpdate{Status: &status, Error: &errMsg}); err != nil {
			logging.Errorf("[processor] task %s: degrade update: %v", taskID, err)
		}
		return
	}

	if outcome.StatusUpdate != nil {
		update := store.TaskUpdate{Status: outcome.StatusUpdate}
		if *outcome.StatusUpdate == types.StatusCompleted {
			now := time.Now()
			update.CompletedAt = &now
		}
		if err := p.tasks.Update(ctx, taskID, update); err != nil {
			logging.Errorf("[processor] task %s: status update: %v", taskID, err)
		}
	}
}

// handleInterrupt applies the bounded-retry policy of spec.md §4.7. If a
// cancel handler has already cleared the singleton state for taskID (the
// Interrupt surfacing as the tail end of a cancelled generate call, spec.md
// §8 Scenario 6), this must not schedule another iteration or transition the
// task itself — OnCancel already owns that task's terminal handling.
func (p *Processor) handleInterrupt(ctx context.Context, taskID string, state *taskState) {
	if !p.owns(taskID) {
		p.clear(taskID)
		return
	}

	state.retryCount++
	if state.retryCount <= MaxInterruptRetries {
		p.scheduleRetry(ctx, taskID)
		return
	}
	p.failWithStatus(ctx, taskID, types.StatusNeedsHelp, "Exceeded maximum interrupt retries")
}

// fail transitions taskID to FAILED using err's message, capped at 500 chars
// with a fallback, then clears singleton and per-task state (spec.md §4.7).
func (p *Processor) fail(ctx context.Context, taskID string, err error) {
	msg := "Processing error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	p.failWith(ctx, taskID, msg)
}

func (p *Processor) failWith(ctx context.Context, taskID, msg string) {
	p.failWithStatus(ctx, taskID, types.StatusFailed, msg)
}

func (p *Processor) failWithStatus(ctx context.Context, taskID string, status types.TaskStatus, msg string) {
	errMsg := types.TruncateError(msg)
	if err := p.tasks.Update(ctx, taskID, store.TaskUpdate{Status: &status, Error: &errMsg}); err != nil {
		logging.Errorf("[processor] task %s: terminal update failed: %v", taskID, err)
	}
	p.clear(taskID)
}
