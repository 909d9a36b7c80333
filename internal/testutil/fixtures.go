package testutil

// CompletionResponseJSON is a Jurassic-2 response with every optional field
// present, including gateway invocation metrics.
const CompletionResponseJSON = `{
  "id": "1234",
  "prompt": {
    "text": "Hello",
    "tokens": [
      {
        "generatedToken": {"token": "▁Hello", "logprob": -8.9, "raw_logprob": -8.9},
        "topTokens": [
          {"token": "▁Hello", "logprob": -8.9},
          {"token": "▁Hi", "logprob": -9.4}
        ],
        "textRange": {"start": 0, "end": 5}
      }
    ]
  },
  "completions": [
    {
      "data": {
        "text": " world",
        "tokens": [
          {
            "generatedToken": {"token": "▁world", "logprob": -0.5, "raw_logprob": -0.7},
            "topTokens": [{"token": "▁world", "logprob": -0.5}],
            "textRange": {"start": 0, "end": 6}
          }
        ]
      },
      "finishReason": {"reason": "stop", "sequence": "\n"}
    }
  ],
  "amazon-bedrock-invocationMetrics": {
    "inputTokenCount": 1,
    "outputTokenCount": 1,
    "invocationLatency": 412,
    "firstByteLatency": 398
  }
}`

// TwoCompletionsJSON holds a length-limited completion followed by one halted
// by a stop sequence. Tokens carry no topTokens.
const TwoCompletionsJSON = `{
  "id": "req-2",
  "prompt": {"text": "Count:", "tokens": []},
  "completions": [
    {
      "data": {
        "text": " one two three",
        "tokens": [
          {
            "generatedToken": {"token": "▁one", "logprob": -1.25, "raw_logprob": -1.5},
            "textRange": {"start": 0, "end": 4}
          }
        ]
      },
      "finishReason": {"reason": "length", "length": 3}
    },
    {
      "data": {"text": " one", "tokens": []},
      "finishReason": {"reason": "stop", "sequence": "##"}
    }
  ]
}`
