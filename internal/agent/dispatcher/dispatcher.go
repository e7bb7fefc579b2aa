// Package dispatcher implements the Tool Dispatcher (spec.md §4.6): the
// per-block sweep over an assistant turn that executes desktop tools,
// creates child tasks, and records status-change requests, plus the
// Computer-Tool Degrader that disables desktop automation after repeated
// failures.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// ComputerToolFailureThreshold is the failure count at which the degrader
// trips (spec.md §4.6: "the counter reaches 2").
const ComputerToolFailureThreshold = 2

// ToolResult is the outcome of a desktop tool invocation (spec.md §6).
type ToolResult struct {
	Content string
	IsError bool
}

// ComputerToolHandler executes a computer_* tool use block.
type ComputerToolHandler interface {
	HandleComputerToolUse(ctx context.Context, block types.ContentBlock) ToolResult
}

// TaskState is the per-task ephemeral counters the Lifecycle Controller
// owns and passes in for each dispatch (spec.md §4.1, §4.6).
type TaskState struct {
	ComputerToolFailures  int
	ComputerToolsDisabled bool
}

// Outcome reports what the dispatcher observed so the iteration loop and
// lifecycle controller can act on it.
type Outcome struct {
	ResultBlocks []types.ContentBlock

	// Degraded is set when this sweep tripped the computer-tool degrader;
	// the iteration must stop without processing further blocks.
	Degraded      bool
	DegradedError string

	// StatusUpdate, set when a set_task_status block was seen, is applied
	// by the caller only after all tool results are persisted (spec.md
	// §4.6: "Do NOT transition status inside the loop").
	StatusUpdate *types.TaskStatus
}

// Dispatcher runs the block sweep of spec.md §4.6.
type Dispatcher struct {
	Tasks   store.TaskStore
	Desktop ComputerToolHandler
}

// New creates a Dispatcher.
func New(tasks store.TaskStore, desktop ComputerToolHandler) *Dispatcher {
	return &Dispatcher{Tasks: tasks, Desktop: desktop}
}

// Dispatch sweeps blocks in order, mutating state in place and returning the
// accumulated outcome. Iteration stops early (no further blocks processed)
// the moment the computer-tool degrader trips, per spec.md §4.6.
func (d *Dispatcher) Dispatch(ctx context.Context, task *types.Task, blocks []types.ContentBlock, state *TaskState) Outcome {
	var out Outcome

	for _, b := range blocks {
		if b.Type != types.BlockToolUse {
			continue
		}

		switch {
		case b.IsComputerTool():
			result := d.Desktop.HandleComputerToolUse(ctx, b)
			out.ResultBlocks = append(out.ResultBlocks, types.ToolResultBlock(b.ToolUseID, result.Content, result.IsError))

			if result.IsError {
				state.ComputerToolFailures++
				if state.ComputerToolFailures >= ComputerToolFailureThreshold && !state.ComputerToolsDisabled {
					state.ComputerToolsDisabled = true
					out.Degraded = true
					out.DegradedError = "Desktop automation repeatedly failed and has been disabled for this task."
					return out
				}
			} else {
				state.ComputerToolFailures = 0
			}

		case b.Name == "create_task":
			resultText := d.createTask(ctx, task, b)
			out.ResultBlocks = append(out.ResultBlocks, types.ToolResultBlock(b.ToolUseID, resultText, false))

		case b.Name == "set_task_status":
			status, resultText, isError := setTaskStatusResult(b)
			out.ResultBlocks = append(out.ResultBlocks, types.ToolResultBlock(b.ToolUseID, resultText, isError))
			if status != nil {
				out.StatusUpdate = status
			}
		}
	}

	return out
}

func (d *Dispatcher) createTask(ctx context.Context, parent *types.Task, b types.ContentBlock) string {
	var input struct {
		Type         string `json:"type"`
		Priority     string `json:"priority"`
		Description  string `json:"description"`
		ScheduledFor string `json:"scheduledFor"`
	}
	_ = json.Unmarshal(b.Input, &input)

	dto := store.TaskCreate{
		Type:        strings.ToUpper(input.Type),
		Priority:    strings.ToUpper(input.Priority),
		Description: input.Description,
		CreatedBy:   "ASSISTANT",
		Model:       parent.Model,
	}
	if input.ScheduledFor != "" {
		if t, err := time.Parse(time.RFC3339, input.ScheduledFor); err == nil {
			dto.ScheduledFor = &t
		}
	}

	if _, err := d.Tasks.Create(ctx, dto); err != nil {
		return fmt.Sprintf("Failed to create task: %v", err)
	}
	return "The task has been created"
}

// setTaskStatusResult interprets a set_task_status block without applying
// it (spec.md §4.6 defers the transition to the caller).
func setTaskStatusResult(b types.ContentBlock) (status *types.TaskStatus, result string, isError bool) {
	var input struct {
		Status      string `json:"status"`
		Description string `json:"description"`
	}
	_ = json.Unmarshal(b.Input, &input)

	isError = input.Status == "failed"
	result = input.Description

	switch input.Status {
	case "completed":
		s := types.StatusCompleted
		status = &s
	case "needs_help":
		s := types.StatusNeedsHelp
		status = &s
	}
	return status, result, isError
}
