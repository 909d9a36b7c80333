// Package bedrock is a minimal AWS Bedrock runtime transport.
//
// It sends an already-serialized model request to the InvokeModel API and
// returns the raw response body. Request signing (SigV4), credential
// resolution, region routing, timeouts and retries live here so that model
// bindings only deal with their own payload shapes.
package bedrock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultTimeout         = 5 * time.Minute
	defaultMaxRetries      = 3
	defaultRetryDelay      = 500 * time.Millisecond
	defaultRetryMultiplier = 2.0
)

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Invoker sends a serialized request body to a model and returns the raw
// response body.
type Invoker interface {
	Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, modelID string, body []byte) ([]byte, error)

// Invoke calls f(ctx, modelID, body).
func (f InvokerFunc) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	return f(ctx, modelID, body)
}

// Client invokes models through the Bedrock runtime InvokeModel API.
//
// Thread Safety: Client is safe for concurrent use.
type Client struct {
	region          string
	endpoint        string
	credentials     CredentialsProvider
	httpClient      HTTPClient
	signer          *Signer
	timeout         time.Duration
	maxRetries      int
	retryDelay      time.Duration
	retryMultiplier float64
	logger          *zap.Logger
	metrics         *Metrics

	randMu  sync.Mutex
	randSrc *rand.Rand
}

// Option is a functional option for configuring the Client.
type Option func(*Client) error

// NewClient creates a Client for region.
//
// Without options it resolves credentials from the environment, uses a five
// minute timeout and retries throttling and 5xx failures three times.
//
// Example:
//
//	client, err := bedrock.NewClient("us-east-1",
//	    bedrock.WithStaticCredentials(accessKey, secretKey, ""),
//	    bedrock.WithTimeout(30*time.Second),
//	)
func NewClient(region string, opts ...Option) (*Client, error) {
	if region == "" {
		return nil, errors.New("region is required")
	}

	c := &Client{
		region:          region,
		credentials:     DefaultCredentialsProvider(),
		httpClient:      &http.Client{},
		timeout:         defaultTimeout,
		maxRetries:      defaultMaxRetries,
		retryDelay:      defaultRetryDelay,
		retryMultiplier: defaultRetryMultiplier,
		logger:          zap.NewNop(),
		randSrc:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.endpoint == "" {
		c.endpoint = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region)
	}
	if c.signer == nil {
		c.signer = NewSigner(region)
	}

	return c, nil
}

// WithCredentialsProvider sets the credentials source.
func WithCredentialsProvider(p CredentialsProvider) Option {
	return func(c *Client) error {
		if p == nil {
			return errors.New("credentials provider cannot be nil")
		}
		c.credentials = p
		return nil
	}
}

// WithStaticCredentials uses fixed keys. sessionToken may be empty.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(c *Client) error {
		if accessKeyID == "" {
			return errors.New("AWS access key ID is required")
		}
		if secretAccessKey == "" {
			return errors.New("AWS secret access key is required")
		}
		c.credentials = NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout bounds each Invoke call, retries included.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.Errorf("timeout must be positive, got %v", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

// WithRetries configures retries of retryable failures with exponential backoff.
// maxRetries of zero disables retrying.
func WithRetries(maxRetries int, initialDelay time.Duration, multiplier float64) Option {
	return func(c *Client) error {
		if maxRetries < 0 {
			return errors.Errorf("maxRetries must be non-negative, got %d", maxRetries)
		}
		if initialDelay < 0 {
			return errors.Errorf("initialDelay must be non-negative, got %v", initialDelay)
		}
		if multiplier <= 0 {
			return errors.Errorf("multiplier must be positive, got %f", multiplier)
		}
		c.maxRetries = maxRetries
		c.retryDelay = initialDelay
		c.retryMultiplier = multiplier
		return nil
	}
}

// WithEndpoint overrides the runtime endpoint, e.g. for a VPC endpoint.
// The signing region is unchanged.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) error {
		u, err := url.Parse(endpoint)
		if err != nil {
			return errors.Wrap(err, "invalid endpoint")
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.Errorf("endpoint must be an absolute URL, got %q", endpoint)
		}
		c.endpoint = strings.TrimSuffix(endpoint, "/")
		return nil
	}
}

// WithSigner replaces the default signer.
func WithSigner(s *Signer) Option {
	return func(c *Client) error {
		if s == nil {
			return errors.New("signer cannot be nil")
		}
		c.signer = s
		return nil
	}
}

// WithLogger sets the logger. Invocations are logged at debug level and
// retries at warn level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = l
		return nil
	}
}

// WithMetrics records invocation metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// Region returns the region requests are signed for.
func (c *Client) Region() string {
	return c.region
}

// Endpoint returns the runtime endpoint base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Invoke posts body to the model's invoke endpoint and returns the response
// body unmodified.
//
// Non-2xx responses are returned as typed errors (see ParseError). Retryable
// failures are repeated up to the configured limit.
func (c *Client) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	if modelID == "" {
		return nil, errors.New("model id is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger := c.logger.With(
		zap.String("model_id", modelID),
		zap.String("invocation_id", uuid.NewString()),
	)

	var (
		out    []byte
		status int
	)
	start := time.Now()
	err := c.withRetry(ctx, modelID, logger, func() error {
		var err error
		out, status, err = c.send(ctx, modelID, body, logger)
		return err
	})
	elapsed := time.Since(start)
	c.metrics.observe(modelID, status, elapsed)

	if err != nil {
		logger.Debug("invocation failed",
			zap.Int("status_code", status),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Debug("invocation finished",
		zap.Int("status_code", status),
		zap.Duration("duration", elapsed),
		zap.Int("response_bytes", len(out)),
	)
	return out, nil
}

// send performs a single attempt.
func (c *Client) send(ctx context.Context, modelID string, body []byte, logger *zap.Logger) ([]byte, int, error) {
	creds, err := c.credentials.Retrieve(ctx)
	if err != nil {
		return nil, 0, errors.WithMessage(err, "cant retrieve credentials")
	}

	req, err := c.newRequest(ctx, modelID, body)
	if err != nil {
		return nil, 0, err
	}

	if err := c.signer.SignRequest(req, body, creds); err != nil {
		return nil, 0, errors.WithMessage(err, "cant sign request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, &RequestError{ModelID: modelID, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &RequestError{ModelID: modelID, Err: errors.Wrap(err, "cant read response body")}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := ParseError(resp.StatusCode, resp.Header, data)
		if apiErr, ok := AsAPIError(perr); ok {
			apiErr.ModelID = modelID
		}
		return nil, resp.StatusCode, perr
	}

	c.recordUsage(modelID, resp.Header, logger)
	return data, resp.StatusCode, nil
}

// newRequest builds the signed-path request for modelID.
//
// The model ID is escaped in RawPath so identifiers such as
// "anthropic.claude-v2:1" or provisioned model ARNs survive routing.
func (c *Client) newRequest(ctx context.Context, modelID string, body []byte) (*http.Request, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "invalid endpoint")
	}

	basePath := strings.TrimSuffix(u.Path, "/")
	baseRaw := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = basePath + "/model/" + modelID + "/invoke"
	u.RawPath = baseRaw + "/model/" + uriEncode(modelID) + "/invoke"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "cant create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// recordUsage logs and counts the token usage headers Bedrock attaches to
// InvokeModel responses.
func (c *Client) recordUsage(modelID string, header http.Header, logger *zap.Logger) {
	input := headerInt(header, "X-Amzn-Bedrock-Input-Token-Count")
	output := headerInt(header, "X-Amzn-Bedrock-Output-Token-Count")
	latency := headerInt(header, "X-Amzn-Bedrock-Invocation-Latency")

	c.metrics.tokens(modelID, input, output)
	if input > 0 || output > 0 {
		logger.Debug("token usage",
			zap.Int("input_tokens", input),
			zap.Int("output_tokens", output),
			zap.Int("invocation_latency_ms", latency),
		)
	}
}

func headerInt(header http.Header, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(header.Get(key)))
	if err != nil {
		return 0
	}
	return v
}

// RequestError is returned when a request could not be delivered or its
// response could not be read. It is retryable.
type RequestError struct {
	ModelID string
	Err     error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("bedrock [%s]: request failed: %v", e.ModelID, e.Err)
}

// Unwrap returns the transport error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true.
func (e *RequestError) IsRetryable() bool {
	return true
}
