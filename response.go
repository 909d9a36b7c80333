package jurassic2

import "encoding/json"

// Finish reasons reported in FinishReason.Reason.
const (
	FinishReasonLength    = "length"
	FinishReasonStop      = "stop"
	FinishReasonEndOfText = "endoftext"
)

// ChatResponse is the Jurassic-2 completion response body.
//
// Fields the service leaves out stay nil; nothing is defaulted. Optional
// values are pointers or slices and are omitted only when nil, so an empty
// string or an empty list decodes and re-encodes as sent. Text and token
// strings are always present in their parent object and are always encoded.
//
// Reference: https://docs.ai21.com/reference/j2-complete-api-ref#response
type ChatResponse struct {
	ID                *ResponseID        `json:"id,omitempty"`
	Prompt            *Prompt            `json:"prompt,omitempty"`
	Completions       []Completion       `json:"completions,omitzero"`
	InvocationMetrics *InvocationMetrics `json:"amazon-bedrock-invocationMetrics,omitempty"`
}

// ResponseID identifies a response. Bedrock sends it as a JSON number for
// Jurassic-2 while the AI21 API sends a string; both decode to the same text.
type ResponseID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ResponseID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ResponseID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ResponseID(n.String())
	return nil
}

// String returns the id, or "" for a nil id.
func (id *ResponseID) String() string {
	if id == nil {
		return ""
	}
	return string(*id)
}

// Text returns the text of the first completion, or "" if there is none.
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Completions) == 0 || r.Completions[0].Data == nil {
		return ""
	}
	return r.Completions[0].Data.Text
}

// Completion is one generated continuation.
type Completion struct {
	Data         *Prompt       `json:"data,omitempty"`
	FinishReason *FinishReason `json:"finishReason,omitempty"`
}

// Stopped reports whether generation halted on a stop sequence.
func (c Completion) Stopped() bool {
	return c.FinishReason != nil && c.FinishReason.Reason != nil && *c.FinishReason.Reason == FinishReasonStop
}

// Prompt is text with its token breakdown. It is used both for the echoed
// prompt and for generated completions.
type Prompt struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens,omitzero"`
}

// Token carries per-token diagnostics.
type Token struct {
	GeneratedToken *GeneratedToken `json:"generatedToken,omitempty"`

	// TopTokens lists the top-K alternatives for this position, most probable
	// first. It is nil when the service did not return alternatives.
	TopTokens []TopToken `json:"topTokens,omitzero"`

	// TextRange is the token's offset range in the decoded text.
	TextRange *TextRange `json:"textRange,omitempty"`
}

// GeneratedToken is the token chosen at a position.
type GeneratedToken struct {
	Token string `json:"token"`

	// Logprob is the log probability after sampling parameters were applied.
	Logprob *float64 `json:"logprob,omitempty"`

	// RawLogprob is the log probability before sampling parameters. With
	// temperature=1 and topP=1 it equals Logprob.
	RawLogprob *float64 `json:"raw_logprob,omitempty"`
}

// TopToken is an alternative candidate for a position.
type TopToken struct {
	Token   string   `json:"token"`
	Logprob *float64 `json:"logprob,omitempty"`
}

// TextRange is a [Start, End) character offset range.
type TextRange struct {
	Start *int `json:"start,omitempty"`
	End   *int `json:"end,omitempty"`
}

// FinishReason explains why generation stopped.
type FinishReason struct {
	// Reason is one of the FinishReason constants.
	Reason *string `json:"reason,omitempty"`

	// Length is the number of generated tokens when Reason is "length".
	Length *int `json:"length,omitempty"`

	// Sequence is the stop sequence that matched when Reason is "stop".
	Sequence *string `json:"sequence,omitempty"`
}

// InvocationMetrics is execution metadata attached by Bedrock. Latencies are
// in milliseconds.
//
// Keys other than the four typed ones are kept in Extra and written back on
// encode.
type InvocationMetrics struct {
	InputTokenCount   *int64 `json:"inputTokenCount,omitempty"`
	OutputTokenCount  *int64 `json:"outputTokenCount,omitempty"`
	InvocationLatency *int64 `json:"invocationLatency,omitempty"`
	FirstByteLatency  *int64 `json:"firstByteLatency,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var invocationMetricsKeys = []string{
	"inputTokenCount",
	"outputTokenCount",
	"invocationLatency",
	"firstByteLatency",
}

// UnmarshalJSON decodes the typed fields and collects the rest into Extra.
func (m *InvocationMetrics) UnmarshalJSON(data []byte) error {
	type plain InvocationMetrics
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range invocationMetricsKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*m = InvocationMetrics(p)
	return nil
}

// MarshalJSON encodes the typed fields followed by Extra. Typed fields win
// over an Extra entry with the same key.
func (m InvocationMetrics) MarshalJSON() ([]byte, error) {
	type plain InvocationMetrics
	data, err := json.Marshal(plain(m))
	if err != nil || len(m.Extra) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
