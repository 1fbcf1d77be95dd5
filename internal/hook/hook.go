// Package hook implements the invocation protocol shared by every wfgate
// subcommand: one JSON document on stdin describing a tool call, one JSON
// document (or nothing) on stdout. Reads are time-bounded and size-capped;
// absent or unparseable input is a no-op pass-through, never an error.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Tool names recognized by the workflow hooks.
const (
	ToolTask  = "Task"
	ToolEdit  = "Edit"
	ToolWrite = "Write"
	ToolBash  = "Bash"
)

// Params are the tool parameters the workflow hooks care about. Unknown
// parameters are ignored.
type Params struct {
	// FilePath is the target of Edit/Write invocations.
	FilePath string `json:"file_path"`
	// SubagentType names the delegated role for Task invocations.
	SubagentType string `json:"subagent_type"`
	// Prompt is the delegation prompt; task numbers are extracted from it.
	Prompt string `json:"prompt"`
	// Description is a short delegation summary.
	Description string `json:"description"`
	// Command is the shell command for Bash invocations.
	Command string `json:"command"`
	// InSubagent marks an invocation already running inside a delegated
	// sub-agent context; the main-agent edit restriction does not apply.
	InSubagent bool `json:"in_subagent"`
}

// Invocation is one decoded hook input.
type Invocation struct {
	ToolName string
	Params   Params
	// Output is the textual tool result, present on post-invocation hooks.
	Output string
}

// rawInput mirrors the wire shape. Older callers use "toolName" and
// "parameters"/"params" instead of "tool_name"/"tool_input"; all are accepted.
type rawInput struct {
	ToolName    string          `json:"tool_name"`
	ToolNameAlt string          `json:"toolName"`
	ToolInput   json.RawMessage `json:"tool_input"`
	Parameters  json.RawMessage `json:"parameters"`
	Params      json.RawMessage `json:"params"`
	ToolOutput  json.RawMessage `json:"tool_output"`
}

// Read decodes an Invocation from r, reading at most maxBytes and giving up
// after timeout. The boolean is false when there is nothing to act on: empty
// input, a timeout, or a document that does not parse.
func Read(r io.Reader, maxBytes int64, timeout time.Duration) (*Invocation, bool) {
	data, ok := readAll(r, maxBytes, timeout)
	if !ok || len(strings.TrimSpace(string(data))) == 0 {
		return nil, false
	}

	var raw rawInput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}

	name := raw.ToolName
	if name == "" {
		name = raw.ToolNameAlt
	}
	if name == "" {
		return nil, false
	}

	inv := &Invocation{ToolName: name}

	params := raw.ToolInput
	if params == nil {
		params = raw.Parameters
	}
	if params == nil {
		params = raw.Params
	}
	if params != nil {
		// A malformed parameter object degrades to empty params rather
		// than discarding the invocation.
		_ = json.Unmarshal(params, &inv.Params)
	}

	inv.Output = decodeOutput(raw.ToolOutput)
	return inv, true
}

// decodeOutput coerces tool_output to text: a JSON string is unquoted, any
// other shape is kept as its raw JSON rendering.
func decodeOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// readAll drains r up to maxBytes, abandoning the read after timeout. The
// read runs in a goroutine because stdin may simply never deliver EOF when
// the orchestrator forgot to close its end.
func readAll(r io.Reader, maxBytes int64, timeout time.Duration) ([]byte, bool) {
	type result struct {
		data []byte
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, maxBytes))
		ch <- result{data, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, false
		}
		return res.data, true
	case <-time.After(timeout):
		return nil, false
	}
}

// Decision is the pre-invocation gate verdict written to stdout.
type Decision struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// WriteDecision emits a gate verdict to w.
func WriteDecision(w io.Writer, d Decision) {
	data, err := json.Marshal(d)
	if err != nil {
		// Fail open: an unencodable verdict must not block the tool call.
		fmt.Fprintf(w, `{"decision":%q}`+"\n", DecisionAllow)
		return
	}
	fmt.Fprintln(w, string(data))
}

// WriteSystemMessage emits an informational message the orchestrator
// surfaces to the user.
func WriteSystemMessage(w io.Writer, msg string) {
	data, err := json.Marshal(struct {
		SystemMessage string `json:"systemMessage"`
	}{msg})
	if err != nil {
		return
	}
	fmt.Fprintln(w, string(data))
}
