// Package stream decodes the agent CLI's line-delimited stream-json output
// into typed events and accumulates them into a StreamResponse (spec §4.B).
package stream

// StreamEvent is the envelope every decoded line is unmarshaled into.
type StreamEvent struct {
	Type       string          `json:"type"`
	Subtype    string          `json:"subtype,omitempty"`
	Session    string          `json:"session_id,omitempty"`
	Message    *MessageContent `json:"message,omitempty"`
	Result     string          `json:"result,omitempty"`
	StopReason string          `json:"stop_reason,omitempty"`
	Usage      *UsageBlock     `json:"usage,omitempty"`
}

// MessageContent is the message field of an assistant event.
type MessageContent struct {
	Content []ContentBlock `json:"content,omitempty"`
	Usage   *UsageBlock    `json:"usage,omitempty"`
}

// ContentBlock is one block of an assistant message's content array.
type ContentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// UsageBlock carries token usage counters.
type UsageBlock struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens"`
	CacheReadTokens     int `json:"cache_read_input_tokens"`
}
