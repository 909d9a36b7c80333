package jurassic2

// ChatRequest is the Jurassic-2 completion request body.
//
// Optional fields are pointers or slices and are left out of the encoded
// body when unset; the service never sees an explicit null.
type ChatRequest struct {
	// Prompt is the text to complete.
	Prompt string `json:"prompt"`

	// Temperature controls randomness of the generated text.
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP keeps only the most probable tokens whose mass adds up to TopP.
	TopP *float64 `json:"topP,omitempty"`

	// MaxTokens caps the number of generated tokens.
	MaxTokens *int `json:"maxTokens,omitempty"`

	// StopSequences end generation once any of them is produced.
	StopSequences []string `json:"stopSequences,omitzero"`

	// CountPenalty penalizes tokens proportionally to how often they already appeared.
	CountPenalty *IntegerScalePenalty `json:"countPenalty,omitempty"`

	// PresencePenalty penalizes tokens that appeared at least once.
	PresencePenalty *FloatScalePenalty `json:"presencePenalty,omitempty"`

	// FrequencyPenalty penalizes tokens by their frequency normalized to text length.
	FrequencyPenalty *IntegerScalePenalty `json:"frequencyPenalty,omitempty"`
}

// IntegerScalePenalty is a repetition penalty with an integer strength.
//
// The ApplyTo flags are always encoded, so an explicit false reaches the
// service as false.
type IntegerScalePenalty struct {
	Scale               *int `json:"scale,omitempty"`
	ApplyToWhitespaces  bool `json:"applyToWhitespaces"`
	ApplyToPunctuations bool `json:"applyToPunctuations"`
	ApplyToNumbers      bool `json:"applyToNumbers"`
	ApplyToStopwords    bool `json:"applyToStopwords"`
	ApplyToEmojis       bool `json:"applyToEmojis"`
}

// FloatScalePenalty is a repetition penalty with a fractional strength.
type FloatScalePenalty struct {
	Scale               *float64 `json:"scale,omitempty"`
	ApplyToWhitespaces  bool     `json:"applyToWhitespaces"`
	ApplyToPunctuations bool     `json:"applyToPunctuations"`
	ApplyToNumbers      bool     `json:"applyToNumbers"`
	ApplyToStopwords    bool     `json:"applyToStopwords"`
	ApplyToEmojis       bool     `json:"applyToEmojis"`
}

// ChatRequestBuilder accumulates optional request fields.
//
// Each Build call returns an independent snapshot; later setter calls do not
// affect requests already built.
//
// Example:
//
//	req := jurassic2.NewChatRequestBuilder("Write a haiku about Go.").
//	    Temperature(0.7).
//	    MaxTokens(64).
//	    StopSequences("\n\n").
//	    Build()
type ChatRequestBuilder struct {
	req ChatRequest
}

// NewChatRequestBuilder starts a request for prompt.
func NewChatRequestBuilder(prompt string) *ChatRequestBuilder {
	return &ChatRequestBuilder{req: ChatRequest{Prompt: prompt}}
}

// Temperature sets the sampling temperature.
func (b *ChatRequestBuilder) Temperature(v float64) *ChatRequestBuilder {
	b.req.Temperature = &v
	return b
}

// TopP sets the nucleus sampling threshold.
func (b *ChatRequestBuilder) TopP(v float64) *ChatRequestBuilder {
	b.req.TopP = &v
	return b
}

// MaxTokens sets the generation length limit.
func (b *ChatRequestBuilder) MaxTokens(v int) *ChatRequestBuilder {
	b.req.MaxTokens = &v
	return b
}

// StopSequences replaces the stop sequences.
func (b *ChatRequestBuilder) StopSequences(seqs ...string) *ChatRequestBuilder {
	b.req.StopSequences = append([]string(nil), seqs...)
	return b
}

// CountPenalty sets the count penalty.
func (b *ChatRequestBuilder) CountPenalty(p IntegerScalePenalty) *ChatRequestBuilder {
	b.req.CountPenalty = &p
	return b
}

// PresencePenalty sets the presence penalty.
func (b *ChatRequestBuilder) PresencePenalty(p FloatScalePenalty) *ChatRequestBuilder {
	b.req.PresencePenalty = &p
	return b
}

// FrequencyPenalty sets the frequency penalty.
func (b *ChatRequestBuilder) FrequencyPenalty(p IntegerScalePenalty) *ChatRequestBuilder {
	b.req.FrequencyPenalty = &p
	return b
}

// Build returns a deep copy of the accumulated request.
func (b *ChatRequestBuilder) Build() ChatRequest {
	return b.req.clone()
}

func (r ChatRequest) clone() ChatRequest {
	out := ChatRequest{
		Prompt:      r.Prompt,
		Temperature: copyPtr(r.Temperature),
		TopP:        copyPtr(r.TopP),
		MaxTokens:   copyPtr(r.MaxTokens),
	}
	if r.StopSequences != nil {
		out.StopSequences = append([]string(nil), r.StopSequences...)
	}
	if r.CountPenalty != nil {
		p := *r.CountPenalty
		p.Scale = copyPtr(p.Scale)
		out.CountPenalty = &p
	}
	if r.PresencePenalty != nil {
		p := *r.PresencePenalty
		p.Scale = copyPtr(p.Scale)
		out.PresencePenalty = &p
	}
	if r.FrequencyPenalty != nil {
		p := *r.FrequencyPenalty
		p.Scale = copyPtr(p.Scale)
		out.FrequencyPenalty = &p
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
