package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackResponse is substituted whenever the loop's raw output flattens to
// an empty or whitespace-only string. The chat API guarantees a non-empty
// response field.
const FallbackResponse = "I processed your request but could not format a response."

// DefaultMaxToolOutput caps the output field of trace records.
const DefaultMaxToolOutput = 2000

// rawKind tags the Raw variant.
type rawKind int

const (
	rawText rawKind = iota
	rawFragments
)

// Raw is the loop's untyped output before normalization: either a plain
// string or an ordered list of heterogeneous fragments.
type Raw struct {
	kind      rawKind
	text      string
	fragments []Fragment
}

// RawText wraps a plain string.
func RawText(s string) Raw { return Raw{kind: rawText, text: s} }

// RawFragments wraps an ordered fragment list.
func RawFragments(fragments ...Fragment) Raw {
	return Raw{kind: rawFragments, fragments: fragments}
}

// fragmentKind tags the Fragment variant.
type fragmentKind int

const (
	fragmentText fragmentKind = iota
	fragmentKeyed
)

// Fragment is one element of a fragment list: either plain text or a keyed
// mapping whose "text" or "content" entry carries the displayable part.
type Fragment struct {
	kind  fragmentKind
	text  string
	keyed map[string]any
}

// TextFragment wraps a plain string fragment.
func TextFragment(s string) Fragment { return Fragment{kind: fragmentText, text: s} }

// KeyedFragment wraps a mapping fragment.
func KeyedFragment(m map[string]any) Fragment { return Fragment{kind: fragmentKeyed, keyed: m} }

// Flatten concatenates the raw output into a single string, coercing keyed
// fragments to their textual form.
func (r Raw) Flatten() string {
	switch r.kind {
	case rawText:
		return r.text
	case rawFragments:
		var b strings.Builder
		for _, f := range r.fragments {
			b.WriteString(f.flatten())
		}
		return b.String()
	default:
		return ""
	}
}

func (f Fragment) flatten() string {
	switch f.kind {
	case fragmentText:
		return f.text
	case fragmentKeyed:
		if v, ok := f.keyed["text"]; ok {
			return coerceString(v)
		}
		if v, ok := f.keyed["content"]; ok {
			return coerceString(v)
		}
		return coerceString(f.keyed)
	default:
		return ""
	}
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}

// Step is one normalized trace record: which tool ran, with what input, and
// what it returned.
type Step struct {
	Tool   string `json:"tool"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

// toolCallRecord is the loop's raw record of one executed tool call.
type toolCallRecord struct {
	Tool    string
	Input   map[string]any
	Output  string
	IsError bool
}

// Normalize converts raw loop output and the recorded tool calls into the
// stable API shape: a non-empty response string, trace records in execution
// order with outputs capped at maxToolOutput, and the deduplicated set of
// tool names in first-use order.
func Normalize(raw Raw, records []toolCallRecord, maxToolOutput int) (string, []Step, []string) {
	if maxToolOutput <= 0 {
		maxToolOutput = DefaultMaxToolOutput
	}

	response := raw.Flatten()
	if strings.TrimSpace(response) == "" {
		response = FallbackResponse
	}

	steps := make([]Step, len(records))
	seen := make(map[string]bool)
	var toolsUsed []string
	for i, rec := range records {
		steps[i] = Step{
			Tool:   rec.Tool,
			Input:  coerceString(rec.Input),
			Output: truncate(rec.Output, maxToolOutput),
		}
		if !seen[rec.Tool] {
			seen[rec.Tool] = true
			toolsUsed = append(toolsUsed, rec.Tool)
		}
	}

	return response, steps, toolsUsed
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... [truncated]"
}
