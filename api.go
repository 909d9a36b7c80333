package jurassic2

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/blue-context/jurassic2/bedrock"
)

// ChatBedrockAPI calls a Jurassic-2 model through a Bedrock invoker.
//
// Configuration is fixed by New. The API holds no per-call state and is safe
// for concurrent use whenever its Invoker is; the default bedrock.Client is.
type ChatBedrockAPI struct {
	modelID string
	region  string
	invoker bedrock.Invoker
	codec   Codec
	logger  *zap.Logger
}

type settings struct {
	invoker       bedrock.Invoker
	codec         Codec
	logger        *zap.Logger
	clientOptions []bedrock.Option
}

// Option is a functional option for configuring a ChatBedrockAPI.
type Option func(*settings) error

// New creates an API for modelID in region.
//
// modelID is passed to the invoker as given; it is normally one of the
// ChatModel constants but is not checked against them.
//
// Unless WithInvoker is used, New builds a bedrock.Client for region and the
// transport options (credentials, timeout, HTTP client, endpoint, retries,
// metrics) are applied to it.
//
// Example:
//
//	api, err := jurassic2.New(jurassic2.AI21J2MidV1.ID(), "us-east-1",
//	    jurassic2.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := api.ChatCompletion(ctx,
//	    jurassic2.NewChatRequestBuilder("Hello").MaxTokens(50).Build())
func New(modelID, region string, opts ...Option) (*ChatBedrockAPI, error) {
	s := &settings{
		codec:  JSONCodec{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	invoker := s.invoker
	if invoker == nil {
		clientOpts := append([]bedrock.Option{bedrock.WithLogger(s.logger)}, s.clientOptions...)
		client, err := bedrock.NewClient(region, clientOpts...)
		if err != nil {
			return nil, errors.WithMessage(err, "cant create bedrock client")
		}
		invoker = client
	}

	return &ChatBedrockAPI{
		modelID: modelID,
		region:  region,
		invoker: invoker,
		codec:   s.codec,
		logger:  s.logger.With(zap.String("model_id", modelID)),
	}, nil
}

// WithCredentialsProvider sets the AWS credentials source.
func WithCredentialsProvider(p bedrock.CredentialsProvider) Option {
	return withClientOption(bedrock.WithCredentialsProvider(p))
}

// WithTimeout sets the transport timeout for each call.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) error {
		if timeout <= 0 {
			return errors.Errorf("timeout must be positive, got %v", timeout)
		}
		s.clientOptions = append(s.clientOptions, bedrock.WithTimeout(timeout))
		return nil
	}
}

// WithHTTPClient sets the HTTP client used by the transport.
func WithHTTPClient(hc bedrock.HTTPClient) Option {
	return withClientOption(bedrock.WithHTTPClient(hc))
}

// WithEndpoint overrides the Bedrock runtime endpoint.
func WithEndpoint(endpoint string) Option {
	return withClientOption(bedrock.WithEndpoint(endpoint))
}

// WithRetries configures transport retries.
func WithRetries(maxRetries int, initialDelay time.Duration, multiplier float64) Option {
	return withClientOption(bedrock.WithRetries(maxRetries, initialDelay, multiplier))
}

// WithMetrics records transport metrics into m.
func WithMetrics(m *bedrock.Metrics) Option {
	return withClientOption(bedrock.WithMetrics(m))
}

// WithCodec replaces the JSON codec.
func WithCodec(c Codec) Option {
	return func(s *settings) error {
		if c == nil {
			return errors.New("codec cannot be nil")
		}
		s.codec = c
		return nil
	}
}

// WithInvoker replaces the transport. Transport options are then ignored.
func WithInvoker(inv bedrock.Invoker) Option {
	return func(s *settings) error {
		if inv == nil {
			return errors.New("invoker cannot be nil")
		}
		s.invoker = inv
		return nil
	}
}

// WithLogger sets the logger, which is also handed to the default transport.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = l
		return nil
	}
}

func withClientOption(opt bedrock.Option) Option {
	return func(s *settings) error {
		s.clientOptions = append(s.clientOptions, opt)
		return nil
	}
}

// ModelID returns the model ID passed to New.
func (a *ChatBedrockAPI) ModelID() string {
	return a.modelID
}

// Region returns the region passed to New.
func (a *ChatBedrockAPI) Region() string {
	return a.region
}

// ChatCompletion sends req to the model and decodes the reply.
//
// Errors from the invoker are returned unchanged. A body that does not match
// ChatResponse yields a *DecodeError.
func (a *ChatBedrockAPI) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := a.codec.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "cant encode request")
	}

	raw, err := a.invoker.Invoke(ctx, a.modelID, body)
	if err != nil {
		return nil, err
	}

	var resp ChatResponse
	if err := a.codec.Unmarshal(raw, &resp); err != nil {
		return nil, newDecodeError(err)
	}

	a.logger.Debug("chat completion",
		zap.String("id", resp.ID.String()),
		zap.Int("completions", len(resp.Completions)),
	)
	return &resp, nil
}
