package bedrock

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	timeFormat      = "20060102T150405Z"
	shortTimeFormat = "20060102"
	serviceName     = "bedrock"
)

// Signer signs Bedrock runtime requests with AWS Signature Version 4.
//
// Credentials are passed per call so that a single Signer can be shared while
// the underlying credentials rotate.
//
// Thread Safety: Signer is safe for concurrent use.
type Signer struct {
	region  string
	service string
	now     func() time.Time
}

// SignerOption is a functional option for configuring the Signer.
type SignerOption func(*Signer)

// WithSignerClock overrides the clock used for request timestamps.
func WithSignerClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// WithSignerService overrides the signing service name (default "bedrock").
func WithSignerService(service string) SignerOption {
	return func(s *Signer) {
		s.service = service
	}
}

// NewSigner creates a SigV4 signer scoped to region.
func NewSigner(region string, opts ...SignerOption) *Signer {
	s := &Signer{
		region:  region,
		service: serviceName,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignRequest signs req with creds and adds the Authorization, X-Amz-Date,
// X-Amz-Content-Sha256 and (for temporary credentials) X-Amz-Security-Token
// headers.
//
// payload must be the exact request body bytes (nil for an empty body).
//
// Reference: https://docs.aws.amazon.com/IAM/latest/UserGuide/reference_sigv.html
func (s *Signer) SignRequest(req *http.Request, payload []byte, creds Credentials) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}
	if req.URL == nil {
		return fmt.Errorf("request URL cannot be nil")
	}
	if !creds.HasKeys() {
		return fmt.Errorf("credentials are incomplete")
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	now := s.now().UTC()

	if req.Host == "" {
		req.Host = req.URL.Host
	}

	payloadHash := hexEncodedHash(payload)

	req.Header.Set("X-Amz-Date", now.Format(timeFormat))
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	req.Header.Set("Host", req.Host)

	// The security token is part of the signed headers.
	if creds.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}

	canonicalHeaders, signedHeaders := canonicalHeaders(req.Header)
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI(req),
		canonicalQueryString(req.URL.Query()),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := s.credentialScope(now)
	stringToSign := strings.Join([]string{
		algorithm,
		now.Format(timeFormat),
		scope,
		hexEncodedHash([]byte(canonicalRequest)),
	}, "\n")

	signature := hex.EncodeToString(hmacSHA256(s.signingKey(creds.SecretAccessKey, now), []byte(stringToSign)))

	req.Header.Set("Authorization", fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm,
		creds.AccessKeyID,
		scope,
		signedHeaders,
		signature,
	))

	return nil
}

// signingKey derives the per-day signing key.
func (s *Signer) signingKey(secret string, t time.Time) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(t.Format(shortTimeFormat)))
	kRegion := hmacSHA256(kDate, []byte(s.region))
	kService := hmacSHA256(kRegion, []byte(s.service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

// credentialScope returns DATE/REGION/SERVICE/aws4_request.
func (s *Signer) credentialScope(t time.Time) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request",
		t.Format(shortTimeFormat),
		s.region,
		s.service,
	)
}

// canonicalURI encodes each segment of the already-escaped path once more.
// Every service other than S3 expects the path to be double encoded.
func canonicalURI(req *http.Request) string {
	path := req.URL.EscapedPath()
	if path == "" {
		return "/"
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = uriEncode(seg)
	}
	return strings.Join(segments, "/")
}

// canonicalQueryString sorts parameters by key, then by value.
func canonicalQueryString(query map[string][]string) string {
	if len(query) == 0 {
		return ""
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := append([]string(nil), query[k]...)
		sort.Strings(values)

		for _, v := range values {
			parts = append(parts, uriEncode(k)+"="+uriEncode(v))
		}
	}

	return strings.Join(parts, "&")
}

// canonicalHeaders returns the lowercase, sorted "name:value\n" block and the
// semicolon separated signed header list.
func canonicalHeaders(headers http.Header) (canonical, signed string) {
	headerMap := make(map[string]string, len(headers))
	for k, v := range headers {
		if len(v) == 0 {
			continue
		}
		values := make([]string, len(v))
		for i := range v {
			values[i] = strings.Join(strings.Fields(v[i]), " ")
		}
		headerMap[strings.ToLower(k)] = strings.Join(values, ",")
	}

	keys := make([]string, 0, len(headerMap))
	for k := range headerMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(headerMap[k])
		b.WriteByte('\n')
	}

	return b.String(), strings.Join(keys, ";")
}

func hexEncodedHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// uriEncode percent-encodes everything except the RFC 3986 unreserved set,
// using uppercase hex as SigV4 requires.
func uriEncode(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			result.WriteByte(c)
			continue
		}
		fmt.Fprintf(&result, "%%%02X", c)
	}

	return result.String()
}
