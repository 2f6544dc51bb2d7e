// internal/command/interpreter.go
package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"webweave/internal/workspace"
)

// diagnosticLimit bounds how much of a malformed reply is echoed into
// the diagnostic shown to the user.
const diagnosticLimit = 500

// Interpreter turns one raw model reply into an ordered batch of applied
// operation records. Side effects run eagerly, left to right, with no
// rollback: a bad element mid-batch is recorded as a warning and the
// remaining elements still execute.
type Interpreter struct {
	store    *workspace.Store
	reporter workspace.Reporter
}

// NewInterpreter creates an Interpreter applying operations to the given
// store. The reporter receives inline warnings; it may be nil.
func NewInterpreter(store *workspace.Store, reporter workspace.Reporter) *Interpreter {
	return &Interpreter{store: store, reporter: reporter}
}

func (it *Interpreter) warn(msg string) {
	if it.reporter != nil {
		it.reporter.Report(msg)
	}
}

// stripFence removes a surrounding markdown code fence, with or without
// a language tag, from a trimmed reply.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.HasPrefix(body, "[") {
		// Drop the language tag line (```json and friends).
		body = body[nl+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// Apply parses the reply and executes the resulting operations against
// the workspace. The returned batch always has one record per reply
// element (or exactly one synthetic chat record when the reply is not a
// JSON array), so it can stand in for the raw reply as the assistant turn.
func (it *Interpreter) Apply(reply string) []Record {
	text := stripFence(strings.TrimSpace(reply))

	var parsed interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		diag := fmt.Sprintf("Model reply is not valid JSON: %v. Text: %q", err, truncate(reply, diagnosticLimit))
		it.warn(diag)
		return []Record{{
			Action:  ActionChat,
			Content: "AI (invalid JSON): " + reply,
			Warning: diag,
		}}
	}

	elements, ok := parsed.([]interface{})
	if !ok {
		return []Record{{
			Action:  ActionChat,
			Content: "AI (non-list JSON): " + reply,
		}}
	}

	records := make([]Record, 0, len(elements))
	for _, element := range elements {
		obj, ok := element.(map[string]interface{})
		if !ok {
			diag := fmt.Sprintf("Skipped non-object element: %v", element)
			it.warn(diag)
			records = append(records, Record{Action: ActionChat, Content: diag, Warning: diag})
			continue
		}
		records = append(records, it.execute(obj))
	}
	return records
}

// execute applies one parsed operation object and returns its record.
func (it *Interpreter) execute(obj map[string]interface{}) Record {
	action, _ := obj["action"].(string)
	filename, _ := obj["filename"].(string)
	content, hasContent := obj["content"].(string)

	rec := Record{Action: action, Filename: filename}
	if hasContent {
		rec.Content = content
	}

	switch action {
	case ActionCreateUpdate:
		if filename == "" || !hasContent {
			rec.Warning = fmt.Sprintf("Invalid 'create_update': filename=%q, content present=%v", filename, hasContent)
			it.warn(rec.Warning)
			return rec
		}
		if !it.store.Write(filename, content) {
			rec.Warning = fmt.Sprintf("Failed to save '%s'.", filename)
			it.warn(rec.Warning)
		}
	case ActionDelete:
		if filename == "" {
			rec.Warning = "Invalid 'delete': missing filename"
			it.warn(rec.Warning)
			return rec
		}
		if !it.store.Delete(filename) {
			// The store already reported the detail (missing vs. I/O).
			rec.Warning = fmt.Sprintf("Could not delete '%s'.", filename)
		}
	case ActionChat:
		// Display only, no side effect.
	default:
		rec.Warning = fmt.Sprintf("Unknown action '%s'", action)
		it.warn(rec.Warning)
	}
	return rec
}
