package bedrock

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
)

// Credentials is a set of AWS security credentials.
type Credentials struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID,required"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY,required"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`
}

// HasKeys reports whether both the access key ID and secret are set.
func (c Credentials) HasKeys() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// CredentialsProvider resolves credentials for a request.
//
// Retrieve is called once per attempt, so implementations backed by
// short-lived credentials may refresh between calls.
type CredentialsProvider interface {
	Retrieve(ctx context.Context) (Credentials, error)
}

// CredentialsProviderFunc adapts a function to CredentialsProvider.
type CredentialsProviderFunc func(ctx context.Context) (Credentials, error)

// Retrieve calls f(ctx).
func (f CredentialsProviderFunc) Retrieve(ctx context.Context) (Credentials, error) {
	return f(ctx)
}

// StaticCredentialsProvider always returns the same credentials.
type StaticCredentialsProvider struct {
	Value Credentials
}

// NewStaticCredentialsProvider returns a provider for fixed keys.
// sessionToken may be empty for long-term credentials.
func NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken string) StaticCredentialsProvider {
	return StaticCredentialsProvider{
		Value: Credentials{
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			SessionToken:    sessionToken,
		},
	}
}

// Retrieve returns the static credentials, or an error if they are incomplete.
func (p StaticCredentialsProvider) Retrieve(context.Context) (Credentials, error) {
	if !p.Value.HasKeys() {
		return Credentials{}, errors.New("static credentials are empty")
	}
	return p.Value, nil
}

// EnvCredentialsProvider reads AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN.
type EnvCredentialsProvider struct {
	// Lookuper overrides the environment source. Nil means the process environment.
	Lookuper envconfig.Lookuper
}

// Retrieve loads credentials from the environment on every call.
func (p EnvCredentialsProvider) Retrieve(ctx context.Context) (Credentials, error) {
	lookuper := p.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	var creds Credentials
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &creds,
		Lookuper: lookuper,
	}); err != nil {
		return Credentials{}, errors.WithMessage(err, "cant load credentials from environment")
	}
	if !creds.HasKeys() {
		return Credentials{}, errors.New("environment credentials are empty")
	}
	return creds, nil
}

// ChainCredentialsProvider returns the credentials of the first provider that
// succeeds.
type ChainCredentialsProvider struct {
	Providers []CredentialsProvider
}

// Retrieve walks the chain in order. When every provider fails the returned
// error lists each failure.
func (p ChainCredentialsProvider) Retrieve(ctx context.Context) (Credentials, error) {
	if len(p.Providers) == 0 {
		return Credentials{}, errors.New("no credentials providers configured")
	}

	var msgs []string
	for _, provider := range p.Providers {
		creds, err := provider.Retrieve(ctx)
		if err == nil {
			return creds, nil
		}
		if ctx.Err() != nil {
			return Credentials{}, ctx.Err()
		}
		msgs = append(msgs, err.Error())
	}

	return Credentials{}, errors.Errorf("no valid credentials in chain: %s", strings.Join(msgs, "; "))
}

// DefaultCredentialsProvider returns the chain used when none is configured.
func DefaultCredentialsProvider() CredentialsProvider {
	return ChainCredentialsProvider{
		Providers: []CredentialsProvider{
			EnvCredentialsProvider{},
		},
	}
}
