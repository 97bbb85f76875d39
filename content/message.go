package content

import (
	"encoding/json"
	"fmt"
)

// wireMessage mirrors Message's wire shape but leaves Content raw so it can
// be either a bare string or an array of block objects before normalization.
type wireMessage struct {
	ParentID    *string         `json:"parent_uuid,omitempty"`
	Cost        *float64        `json:"costUSD,omitempty"`
	ID          string          `json:"uuid"`
	SessionID   string          `json:"session_id"`
	Role        Role            `json:"role"`
	Subtype     string          `json:"subtype,omitempty"`
	Model       string          `json:"model,omitempty"`
	CWD         string          `json:"cwd,omitempty"`
	Content     json.RawMessage `json:"content"`
	Usage       Usage           `json:"usage,omitempty"`
	Timestamp   json.RawMessage `json:"timestamp"`
	IsSidechain bool            `json:"isSidechain,omitempty"`
}

// UnmarshalJSON normalizes the content field: a bare string becomes one
// Text block, an array of block objects is decoded element-by-element.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	*m = Message{
		ParentID:    w.ParentID,
		Cost:        w.Cost,
		ID:          w.ID,
		SessionID:   w.SessionID,
		Role:        w.Role,
		Subtype:     w.Subtype,
		Model:       w.Model,
		CWD:         w.CWD,
		Usage:       w.Usage,
		IsSidechain: w.IsSidechain,
	}

	if len(w.Timestamp) > 0 {
		if err := json.Unmarshal(w.Timestamp, &m.Timestamp); err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
	}

	if len(w.Content) == 0 || string(w.Content) == "null" {
		return nil
	}

	if w.Content[0] == '"' {
		var s string
		if err := json.Unmarshal(w.Content, &s); err != nil {
			return fmt.Errorf("decode string content: %w", err)
		}
		if s != "" {
			m.Content = []Block{{Type: BlockText, Text: s}}
		}
		return nil
	}

	var blocks []Block
	if err := json.Unmarshal(w.Content, &blocks); err != nil {
		return fmt.Errorf("decode content blocks: %w", err)
	}
	m.Content = blocks
	return nil
}

// MarshalJSON re-emits the message in its original field layout. Content
// is emitted as an array of blocks, or null when the message has none (the
// bare-string shorthand is not reconstructed, since array-of-one-text-block
// round-trips equivalently).
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(alias(m))
}
