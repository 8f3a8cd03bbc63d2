package stream

import "encoding/json"

// QuestionSet is one AskUserQuestion tool_use's question list.
type QuestionSet []string

// StreamResponse accumulates state across a single invocation's decoded
// events (spec §3 StreamResponse).
type StreamResponse struct {
	Text       string
	Usage      UsageBlock
	SessionID  string
	Questions  []QuestionSet
	StopReason string

	sessionSet bool
}

// HasQuestions reports whether any question-set was recorded.
func (r *StreamResponse) HasQuestions() bool {
	return len(r.Questions) > 0
}

// AllQuestions flattens every recorded question-set into one ordered slice.
func (r *StreamResponse) AllQuestions() []string {
	var all []string
	for _, qs := range r.Questions {
		all = append(all, qs...)
	}
	return all
}

// Decoder turns stream-json lines into updates on a StreamResponse. A zero
// value is ready to use.
type Decoder struct {
	Response StreamResponse
}

// NewDecoder returns a Decoder with an empty StreamResponse.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// ProcessLine decodes one line of stdout. Lines that are not valid JSON (the
// CLI may interleave non-JSON diagnostics) are silently ignored, matching
// the decoder's never-blocks, never-fails contract.
func (d *Decoder) ProcessLine(line string) {
	if line == "" {
		return
	}

	var evt StreamEvent
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		return
	}

	switch evt.Type {
	case "system":
		if evt.Subtype == "init" && !d.Response.sessionSet {
			d.Response.SessionID = evt.Session
			d.Response.sessionSet = true
		}
	case "assistant":
		d.handleAssistant(evt.Message)
	case "result":
		d.Response.StopReason = evt.StopReason
		if evt.Usage != nil {
			d.Response.Usage = *evt.Usage
		}
	}
}

func (d *Decoder) handleAssistant(msg *MessageContent) {
	if msg == nil {
		return
	}

	if msg.Usage != nil {
		d.Response.Usage = UsageBlock{
			InputTokens:         msg.Usage.InputTokens,
			OutputTokens:        msg.Usage.OutputTokens,
			CacheCreationTokens: msg.Usage.CacheCreationTokens,
			CacheReadTokens:     msg.Usage.CacheReadTokens,
		}
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			d.Response.Text += block.Text
		case "tool_use":
			if block.Name == "AskUserQuestion" {
				if qs := extractQuestions(block.Input); len(qs) > 0 {
					d.Response.Questions = append(d.Response.Questions, qs)
				}
			}
		}
	}
}

func extractQuestions(input map[string]any) QuestionSet {
	raw, ok := input["questions"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	qs := make(QuestionSet, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			qs = append(qs, s)
		}
	}
	return qs
}
