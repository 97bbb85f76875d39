// Package content defines the typed message record and content-block
// variants that make up one line of an upstream session log.
//
// A ContentBlock is a single tagged-variant struct (Text, ToolUse,
// ToolResult, Thinking, Image, Unknown fields coexisting with omitempty
// json tags) rather than an interface hierarchy, following the shape of
// agent-cli-wrapper/claude's ContentBlock.
package content

import (
	"encoding/json"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// BlockType identifies the kind of content block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockThinking   BlockType = "thinking"
	BlockImage      BlockType = "image"
	// BlockUnknown is assigned to any block whose "type" discriminator this
	// package does not recognize. Raw preserves the original JSON so
	// round-tripping stays lossless.
	BlockUnknown BlockType = "unknown"
)

// Block is one entry in a message's content payload.
//
// Only the fields relevant to Type are populated; the rest are zero.
// DanglingResult is set by the session parser (not by unmarshaling) when a
// ToolResult's ToolUseID does not match any earlier ToolUse in the thread.
type Block struct {
	Input          json.RawMessage `json:"input,omitempty"`           // tool_use
	Result         json.RawMessage `json:"content,omitempty"`         // tool_result (text or structured)
	Raw            json.RawMessage `json:"raw,omitempty"`             // unknown
	Type           BlockType       `json:"type"`
	Text           string          `json:"text,omitempty"`            // text
	Thinking       string          `json:"thinking,omitempty"`        // thinking
	ToolName       string          `json:"tool_name,omitempty"`       // tool_use
	ToolUseID      string          `json:"tool_use_id,omitempty"`     // tool_use / tool_result
	MediaType      string          `json:"media_type,omitempty"`      // image
	ImageRef       string          `json:"image_ref,omitempty"`       // image, opaque reference
	IsError        bool            `json:"is_error,omitempty"`        // tool_result
	DanglingResult bool            `json:"dangling_result,omitempty"` // tool_result with no matching tool_use
}

// rawBlock is the wire shape used to discriminate and decode a block.
type rawBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
	Source    json.RawMessage `json:"source"`
	MediaType string          `json:"media_type"`
}

// UnmarshalJSON dispatches on the "type" discriminator. Unknown types are
// never rejected: the raw JSON is preserved under BlockUnknown so the
// session round-trips losslessly (spec invariant: lossy round-tripping is
// never acceptable for an unrecognized block).
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw rawBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch BlockType(raw.Type) {
	case BlockText:
		*b = Block{Type: BlockText, Text: raw.Text}
	case BlockToolUse:
		*b = Block{Type: BlockToolUse, ToolUseID: raw.ID, ToolName: raw.Name, Input: raw.Input}
	case BlockToolResult:
		*b = Block{Type: BlockToolResult, ToolUseID: raw.ToolUseID, Result: raw.Content, IsError: raw.IsError}
	case BlockThinking:
		*b = Block{Type: BlockThinking, Thinking: raw.Thinking}
	case BlockImage:
		mediaType := raw.MediaType
		if mediaType == "" && len(raw.Source) > 0 {
			var src struct {
				MediaType string `json:"media_type"`
			}
			_ = json.Unmarshal(raw.Source, &src)
			mediaType = src.MediaType
		}
		*b = Block{Type: BlockImage, MediaType: mediaType, ImageRef: string(raw.Source)}
	default:
		*b = Block{Type: BlockUnknown, Raw: append(json.RawMessage(nil), data...)}
	}
	return nil
}

// MarshalJSON re-emits a block in its original wire shape. Unknown blocks
// re-emit their preserved Raw JSON verbatim.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Type == BlockUnknown {
		if len(b.Raw) > 0 {
			return b.Raw, nil
		}
		return []byte(`{"type":"unknown"}`), nil
	}

	switch b.Type {
	case BlockText:
		return json.Marshal(struct {
			Type BlockType `json:"type"`
			Text string    `json:"text"`
		}{b.Type, b.Text})
	case BlockToolUse:
		return json.Marshal(struct {
			Type  BlockType       `json:"type"`
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input,omitempty"`
		}{b.Type, b.ToolUseID, b.ToolName, b.Input})
	case BlockToolResult:
		return json.Marshal(struct {
			Type      BlockType       `json:"type"`
			ToolUseID string          `json:"tool_use_id"`
			Content   json.RawMessage `json:"content,omitempty"`
			IsError   bool            `json:"is_error,omitempty"`
		}{b.Type, b.ToolUseID, b.Result, b.IsError})
	case BlockThinking:
		return json.Marshal(struct {
			Type     BlockType `json:"type"`
			Thinking string    `json:"thinking"`
		}{b.Type, b.Thinking})
	case BlockImage:
		return json.Marshal(struct {
			Type      BlockType       `json:"type"`
			MediaType string          `json:"media_type,omitempty"`
			Source    json.RawMessage `json:"source,omitempty"`
		}{b.Type, b.MediaType, json.RawMessage(b.ImageRef)})
	default:
		return []byte(`{"type":"unknown"}`), nil
	}
}

// Usage holds per-message token counters.
type Usage struct {
	InputTokens      int `json:"input_tokens,omitempty"`
	CacheReadTokens  int `json:"cache_read_input_tokens,omitempty"`
	CacheWriteTokens int `json:"cache_creation_input_tokens,omitempty"`
	OutputTokens     int `json:"output_tokens,omitempty"`
}

// Message is one parsed record from an upstream session log.
type Message struct {
	ParentID    *string   `json:"parent_uuid,omitempty"`
	Cost        *float64  `json:"costUSD,omitempty"`
	ID          string    `json:"uuid"`
	SessionID   string    `json:"session_id"`
	Role        Role      `json:"role"`
	Subtype     string    `json:"subtype,omitempty"`
	Model       string    `json:"model,omitempty"`
	CWD         string    `json:"cwd,omitempty"`
	Content     []Block   `json:"content"`
	Usage       Usage     `json:"usage,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	IsSidechain bool      `json:"isSidechain,omitempty"`
}

// Text concatenates every Text block in the message, in order. This is the
// "response text" for a turn; a tool-only assistant turn yields "", never a
// sentinel string.
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

// ToolUses returns every tool_use block in the message, in order.
func (m Message) ToolUses() []Block {
	var out []Block
	for _, b := range m.Content {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// ToolResults returns every tool_result block in the message, in order.
func (m Message) ToolResults() []Block {
	var out []Block
	for _, b := range m.Content {
		if b.Type == BlockToolResult {
			out = append(out, b)
		}
	}
	return out
}
