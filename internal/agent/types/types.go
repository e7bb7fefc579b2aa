// Package types holds the data model shared by every agent-processor
// component: tasks, messages, content blocks, summaries, and the model
// descriptor (spec.md §3).
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// TaskStatus is one of the terminal or active states a Task can occupy.
type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusRunning   TaskStatus = "RUNNING"
	StatusNeedsHelp TaskStatus = "NEEDS_HELP"
	StatusCompleted TaskStatus = "COMPLETED"
	StatusFailed    TaskStatus = "FAILED"
	StatusCancelled TaskStatus = "CANCELLED"
)

// MaxErrorLen is the cap spec.md §3 and §7 place on the Task.Error field.
const MaxErrorLen = 500

// TruncateError caps an error message at MaxErrorLen characters.
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= MaxErrorLen {
		return msg
	}
	return string(runes[:MaxErrorLen])
}

// Task is the unit of work the processor advances from RUNNING to a
// terminal state. Model is the opaque persisted value the Model Descriptor
// Resolver (§4.3) coerces; it may be a JSON string, object, or malformed.
type Task struct {
	ID          string
	Status      TaskStatus
	Model       json.RawMessage
	CompletedAt *time.Time
	Error       string
}

// Role is the originator of a Message.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// BlockType tags the variant of a ContentBlock (spec.md §3).
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is the tagged union spec.md §3 describes: Text, ToolUse, or
// ToolResult. Only the fields relevant to Type are populated.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// Text block.
	Text string `json:"text,omitempty"`

	// ToolUse block.
	ToolUseID string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`

	// ToolResult block. Always produced with Role = RoleUser at the
	// Message level (spec.md §3).
	ToolUseRefID string         `json:"tool_use_id,omitempty"`
	Content      []ContentBlock `json:"content,omitempty"`
	IsError      bool           `json:"is_error,omitempty"`
}

// IsComputerTool reports whether a ToolUse block names a desktop-automation
// tool (spec.md §3: "name starting with computer_ denotes a desktop tool").
func (b ContentBlock) IsComputerTool() bool {
	return b.Type == BlockToolUse && strings.HasPrefix(b.Name, "computer_")
}

// TextBlock builds a Text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolResultBlock builds a ToolResult content block for the given tool_use id.
func ToolResultBlock(toolUseID, text string, isError bool) ContentBlock {
	return ContentBlock{
		Type:         BlockToolResult,
		ToolUseRefID: toolUseID,
		Content:      []ContentBlock{TextBlock(text)},
		IsError:      isError,
	}
}

// TextContent concatenates every Text block inside a ToolResult's Content,
// or returns the block's own Text if it is itself a Text block.
func (b ContentBlock) TextContent() string {
	if b.Type == BlockText {
		return b.Text
	}
	out := ""
	for _, c := range b.Content {
		out += c.Text
	}
	return out
}

// Message is one turn in a task's conversation (spec.md §3).
type Message struct {
	ID        string
	TaskID    string
	Role      Role
	Content   []ContentBlock
	SummaryID *string
	CreatedAt time.Time
}

// ToolUseBlocks returns the ToolUse blocks within a message's content, in order.
func (m Message) ToolUseBlocks() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// Summary is the compressed history that replaces covered messages in
// subsequent LLM calls (spec.md §3).
type Summary struct {
	ID     string
	TaskID string
	Content string
}

// Provider is a Model Descriptor's resolved LLM backend tag (spec.md §3).
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderProxy     Provider = "proxy"
)

// ModelDescriptor is the canonical record the Model Descriptor Resolver
// produces (spec.md §3, §4.3). ContextWindow is nil when not supplied.
type ModelDescriptor struct {
	Provider      Provider
	Name          string
	Title         string
	ContextWindow *int
}

// ContextWindowOr returns ContextWindow if set, otherwise def.
func (d ModelDescriptor) ContextWindowOr(def int) int {
	if d.ContextWindow != nil {
		return *d.ContextWindow
	}
	return def
}
