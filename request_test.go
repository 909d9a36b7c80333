package jurassic2

import (
	"encoding/json"
	"testing"

	"github.com/blue-context/jurassic2/internal/testutil"
)

func TestChatRequestBuilderOmitsUnsetFields(t *testing.T) {
	tests := []struct {
		name     string
		build    func() ChatRequest
		wantKeys []string
	}{
		{
			name: "prompt only",
			build: func() ChatRequest {
				return NewChatRequestBuilder("Hello").Build()
			},
			wantKeys: []string{"prompt"},
		},
		{
			name: "sampling parameters",
			build: func() ChatRequest {
				return NewChatRequestBuilder("Hello").Temperature(0.7).TopP(0.9).Build()
			},
			wantKeys: []string{"prompt", "temperature", "topP"},
		},
		{
			name: "max tokens and stop sequences",
			build: func() ChatRequest {
				return NewChatRequestBuilder("Hello").MaxTokens(100).StopSequences("\n", "##").Build()
			},
			wantKeys: []string{"prompt", "maxTokens", "stopSequences"},
		},
		{
			name: "zero values are still sent",
			build: func() ChatRequest {
				return NewChatRequestBuilder("Hello").Temperature(0).MaxTokens(0).Build()
			},
			wantKeys: []string{"prompt", "temperature", "maxTokens"},
		},
		{
			name: "penalties only",
			build: func() ChatRequest {
				return NewChatRequestBuilder("Hello").
					CountPenalty(IntegerScalePenalty{Scale: IntPtr(1)}).
					PresencePenalty(FloatScalePenalty{Scale: Float64Ptr(0.5)}).
					FrequencyPenalty(IntegerScalePenalty{Scale: IntPtr(2)}).
					Build()
			},
			wantKeys: []string{"prompt", "countPenalty", "presencePenalty", "frequencyPenalty"},
		},
		{
			name: "everything",
			build: func() ChatRequest {
				return NewChatRequestBuilder("Hello").
					Temperature(0.5).
					TopP(1).
					MaxTokens(200).
					StopSequences("END").
					CountPenalty(IntegerScalePenalty{Scale: IntPtr(0)}).
					PresencePenalty(FloatScalePenalty{Scale: Float64Ptr(0)}).
					FrequencyPenalty(IntegerScalePenalty{Scale: IntPtr(0)}).
					Build()
			},
			wantKeys: []string{"prompt", "temperature", "topP", "maxTokens", "stopSequences",
				"countPenalty", "presencePenalty", "frequencyPenalty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := testutil.New(t)

			data, err := json.Marshal(tt.build())
			assert.NoError(err)
			assert.JSONKeys(data, tt.wantKeys...)

			obj := assert.JSONObject(data)
			for k, v := range obj {
				if v == nil {
					t.Errorf("key %q encoded as null", k)
				}
			}
		})
	}
}

func TestPenaltyFlagsEncodeIndependently(t *testing.T) {
	flags := []string{"applyToWhitespaces", "applyToPunctuations", "applyToNumbers", "applyToStopwords", "applyToEmojis"}

	for i, flag := range flags {
		t.Run(flag, func(t *testing.T) {
			assert := testutil.New(t)

			set := make([]bool, len(flags))
			set[i] = true
			penalty := IntegerScalePenalty{
				Scale:               IntPtr(3),
				ApplyToWhitespaces:  set[0],
				ApplyToPunctuations: set[1],
				ApplyToNumbers:      set[2],
				ApplyToStopwords:    set[3],
				ApplyToEmojis:       set[4],
			}

			data, err := json.Marshal(penalty)
			assert.NoError(err)
			assert.JSONKeys(data, append([]string{"scale"}, flags...)...)

			obj := assert.JSONObject(data)
			for j, other := range flags {
				assert.Equal(j == i, obj[other])
			}

			var decoded IntegerScalePenalty
			assert.NoError(json.Unmarshal(data, &decoded))
			assert.Equal(penalty, decoded)
		})
	}
}

func TestPenaltyWithoutScale(t *testing.T) {
	assert := testutil.New(t)

	data, err := json.Marshal(FloatScalePenalty{ApplyToEmojis: true})
	assert.NoError(err)
	assert.JSONEqual([]byte(`{
		"applyToWhitespaces": false,
		"applyToPunctuations": false,
		"applyToNumbers": false,
		"applyToStopwords": false,
		"applyToEmojis": true
	}`), data)
}

func TestChatRequestWireFormat(t *testing.T) {
	assert := testutil.New(t)

	req := NewChatRequestBuilder("Translate to French: cheese").
		Temperature(0.3).
		TopP(0.95).
		MaxTokens(64).
		StopSequences("\n").
		CountPenalty(IntegerScalePenalty{Scale: IntPtr(1), ApplyToNumbers: true}).
		PresencePenalty(FloatScalePenalty{Scale: Float64Ptr(0.25), ApplyToWhitespaces: true, ApplyToPunctuations: true}).
		FrequencyPenalty(IntegerScalePenalty{Scale: IntPtr(10), ApplyToStopwords: true}).
		Build()

	data, err := json.Marshal(req)
	assert.NoError(err)
	assert.JSONEqual([]byte(`{
		"prompt": "Translate to French: cheese",
		"temperature": 0.3,
		"topP": 0.95,
		"maxTokens": 64,
		"stopSequences": ["\n"],
		"countPenalty": {"scale": 1, "applyToWhitespaces": false, "applyToPunctuations": false,
			"applyToNumbers": true, "applyToStopwords": false, "applyToEmojis": false},
		"presencePenalty": {"scale": 0.25, "applyToWhitespaces": true, "applyToPunctuations": true,
			"applyToNumbers": false, "applyToStopwords": false, "applyToEmojis": false},
		"frequencyPenalty": {"scale": 10, "applyToWhitespaces": false, "applyToPunctuations": false,
			"applyToNumbers": false, "applyToStopwords": true, "applyToEmojis": false}
	}`), data)
}

func TestChatRequestBuilderSnapshotsAreIndependent(t *testing.T) {
	assert := testutil.New(t)

	b := NewChatRequestBuilder("Hello").
		Temperature(0.1).
		StopSequences("a").
		CountPenalty(IntegerScalePenalty{Scale: IntPtr(1)})
	first := b.Build()

	b.Temperature(0.9).StopSequences("b", "c").MaxTokens(10)
	second := b.Build()

	assert.Equal(0.1, *first.Temperature)
	assert.Equal([]string{"a"}, first.StopSequences)
	assert.Nil(first.MaxTokens)

	assert.Equal(0.9, *second.Temperature)
	assert.Equal([]string{"b", "c"}, second.StopSequences)
	assert.Equal(10, *second.MaxTokens)

	// Mutating a snapshot must not leak into the builder or other snapshots.
	second.StopSequences[0] = "z"
	*second.Temperature = 2
	*second.CountPenalty.Scale = 99
	third := b.Build()
	assert.Equal([]string{"b", "c"}, third.StopSequences)
	assert.Equal(0.9, *third.Temperature)
	assert.Equal(1, *third.CountPenalty.Scale)
	assert.Equal(1, *first.CountPenalty.Scale)
}

func TestChatRequestBuilderCopiesStopSequences(t *testing.T) {
	assert := testutil.New(t)

	seqs := []string{"x", "y"}
	req := NewChatRequestBuilder("p").StopSequences(seqs...).Build()
	seqs[0] = "changed"

	assert.Equal([]string{"x", "y"}, req.StopSequences)
}

func TestChatRequestStopSequencesEmptyVsUnset(t *testing.T) {
	assert := testutil.New(t)

	data, err := json.Marshal(NewChatRequestBuilder("p").StopSequences().Build())
	assert.NoError(err)
	assert.JSONKeys(data, "prompt")

	data, err = json.Marshal(ChatRequest{Prompt: "p", StopSequences: []string{}})
	assert.NoError(err)
	assert.JSONEqual([]byte(`{"prompt":"p","stopSequences":[]}`), data)
}
