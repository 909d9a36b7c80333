package testutil

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPClient is a mock HTTP client for testing.
//
// It records every request together with its body so tests can inspect what
// was sent after the body has been consumed.
//
// Example:
//
//	mock := &testutil.MockHTTPClient{
//	    DoFunc: func(req *http.Request) (*http.Response, error) {
//	        return testutil.MockResponse(200, testutil.CompletionResponseJSON), nil
//	    },
//	}
type MockHTTPClient struct {
	// DoFunc is called for each request. If nil, a 200 response with an empty
	// JSON object is returned.
	DoFunc func(req *http.Request) (*http.Response, error)

	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

// Do records req and delegates to DoFunc.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return MockResponse(http.StatusOK, "{}"), nil
}

// Requests returns the recorded requests in order.
func (m *MockHTTPClient) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

// Bodies returns the recorded request bodies in order.
func (m *MockHTTPClient) Bodies() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.bodies...)
}

// MockResponse builds a response with a JSON content type.
func MockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// MockErrorResponse builds a Bedrock-style error response with the
// X-Amzn-ErrorType header set to errorType.
func MockErrorResponse(statusCode int, errorType, message string) *http.Response {
	resp := MockResponse(statusCode, `{"message":"`+message+`"}`)
	if errorType != "" {
		resp.Header.Set("X-Amzn-ErrorType", errorType+":http://internal.amazon.com/coral/com.amazon.bedrock/")
	}
	resp.Header.Set("X-Amzn-RequestId", "11111111-2222-3333-4444-555555555555")
	return resp
}
