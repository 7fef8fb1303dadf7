package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Part type constants. Tool parts use the "tool-" prefix followed by the tool
// name, e.g. "tool-get_weather".
const (
	PartTypeText      = "text"
	PartTypeReasoning = "reasoning"
	ToolPartPrefix    = "tool-"
)

// Tool part states.
const (
	ToolStateInputAvailable  = "input-available"
	ToolStateOutputAvailable = "output-available"
)

// MessagePart is one structured content block inside a message. Parts are an
// ordered sequence; the whole list is persisted as a JSON blob.
type MessagePart struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	State      string          `json:"state,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
}

// IsToolPart reports whether the part records a tool invocation.
func (p MessagePart) IsToolPart() bool {
	return len(p.Type) > len(ToolPartPrefix) && p.Type[:len(ToolPartPrefix)] == ToolPartPrefix
}

// PartList is the ordered part sequence of a message, stored as JSON text.
type PartList []MessagePart

// Value implements driver.Valuer.
func (p PartList) Value() (driver.Value, error) {
	if p == nil {
		p = PartList{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal message parts: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (p *PartList) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), p)
	case []byte:
		return json.Unmarshal(v, p)
	case nil:
		*p = PartList{}
		return nil
	default:
		return fmt.Errorf("unsupported message parts type %T", src)
	}
}

// Attachment is a file attached to a message, referenced by upload URL.
type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

// AttachmentList is the attachment sequence of a message, stored as JSON text.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (a AttachmentList) Value() (driver.Value, error) {
	if a == nil {
		a = AttachmentList{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	case nil:
		*a = AttachmentList{}
		return nil
	default:
		return fmt.Errorf("unsupported attachments type %T", src)
	}
}

// Message is one entry in a chat transcript. Append-only, except that the
// tool-approval replay flow updates parts of existing messages in place.
type Message struct {
	ID          string         `json:"id" db:"id"`
	ChatID      string         `json:"chatId" db:"chat_id"`
	Role        string         `json:"role" db:"role"`
	Parts       PartList       `json:"parts" db:"parts"`
	Attachments AttachmentList `json:"attachments" db:"attachments"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}

// PlainText concatenates the text parts of the message. Used for title
// generation prompts.
func (m *Message) PlainText() string {
	var out string
	for _, part := range m.Parts {
		if part.Type == PartTypeText {
			if out != "" {
				out += "\n"
			}
			out += part.Text
		}
	}
	return out
}
