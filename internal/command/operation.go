// internal/command/operation.go
package command

import (
	"encoding/json"
	"strings"
)

// Known action values in a model reply. Anything else is kept in the
// batch as an unknown-action warning.
const (
	ActionCreateUpdate = "create_update"
	ActionDelete       = "delete"
	ActionChat         = "chat"
)

// Record is one element of an applied operation batch. Malformed elements
// are retained as chat-tagged records with a warning rather than dropped,
// so the batch length always matches the model reply.
type Record struct {
	Action   string `json:"action"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// historyRecord is the view of a Record forwarded back to the model:
// only the fields the reply contract defines.
type historyRecord struct {
	Action   string `json:"action"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content,omitempty"`
}

// BatchJSON serializes a batch the way it is forwarded in conversation
// history, stripping local warning annotations.
func BatchJSON(records []Record) string {
	cleaned := make([]historyRecord, len(records))
	for i, r := range records {
		cleaned[i] = historyRecord{Action: r.Action, Filename: r.Filename, Content: r.Content}
	}
	data, err := json.Marshal(cleaned)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Summary renders a batch for display in the conversation pane: one line
// per file action, warnings inline, chat content concatenated at the end.
func Summary(records []Record) string {
	var actions []string
	var chats []string
	for _, r := range records {
		switch r.Action {
		case ActionCreateUpdate:
			actions = append(actions, "create/update: "+r.Filename)
		case ActionDelete:
			actions = append(actions, "delete: "+r.Filename)
		case ActionChat:
			if r.Content != "" {
				chats = append(chats, r.Content)
			}
		default:
			actions = append(actions, "unknown action: "+r.Action)
		}
		if r.Warning != "" {
			actions = append(actions, "warning: "+r.Warning)
		}
	}
	out := strings.TrimSpace(strings.Join(actions, "\n") + "\n" + strings.Join(chats, "\n"))
	if out == "" {
		return "(no action)"
	}
	return out
}
