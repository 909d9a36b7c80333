// Package testutil provides assertion helpers, an HTTP client mock and
// canned Jurassic-2 payloads for tests in this module.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    assert := testutil.New(t)
//	    assert.NoError(err)
//	    assert.Equal(expected, actual)
//	}
package testutil

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// Assert provides fatal assertion helpers bound to a test.
type Assert struct {
	t testing.TB
}

// New creates a new Assert instance.
func New(t testing.TB) *Assert {
	return &Assert{t: t}
}

// NoError asserts that err is nil.
func (a *Assert) NoError(err error) {
	a.t.Helper()
	if err != nil {
		a.t.Fatalf("expected no error, got: %v", err)
	}
}

// Error asserts that err is not nil.
func (a *Assert) Error(err error) {
	a.t.Helper()
	if err == nil {
		a.t.Fatal("expected error, got nil")
	}
}

// Equal asserts that expected equals actual using deep equality.
func (a *Assert) Equal(expected, actual any) {
	a.t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		a.t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// Nil asserts that v is nil, including typed nil pointers and slices.
func (a *Assert) Nil(v any) {
	a.t.Helper()
	if !isNil(v) {
		a.t.Fatalf("expected nil, got %v", v)
	}
}

// NotNil asserts that v is not nil.
func (a *Assert) NotNil(v any) {
	a.t.Helper()
	if isNil(v) {
		a.t.Fatal("expected not nil, got nil")
	}
}

// True asserts that v is true.
func (a *Assert) True(v bool) {
	a.t.Helper()
	if !v {
		a.t.Fatal("expected true, got false")
	}
}

// False asserts that v is false.
func (a *Assert) False(v bool) {
	a.t.Helper()
	if v {
		a.t.Fatal("expected false, got true")
	}
}

// Contains asserts that s contains substr.
func (a *Assert) Contains(s, substr string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.t.Fatalf("expected %q to contain %q", s, substr)
	}
}

// Len asserts that v has length n.
func (a *Assert) Len(v any, n int) {
	a.t.Helper()
	val := reflect.ValueOf(v)
	if val.Len() != n {
		a.t.Fatalf("expected length %d, got %d", n, val.Len())
	}
}

// JSONObject decodes data into a generic object, failing the test on error.
func (a *Assert) JSONObject(data []byte) map[string]any {
	a.t.Helper()
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		a.t.Fatalf("invalid JSON object %s: %v", data, err)
	}
	return obj
}

// JSONKeys asserts that the JSON object in data has exactly keys.
func (a *Assert) JSONKeys(data []byte, keys ...string) {
	a.t.Helper()
	obj := a.JSONObject(data)
	if len(obj) != len(keys) {
		a.t.Fatalf("expected keys %v, got %v", keys, objectKeys(obj))
	}
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			a.t.Fatalf("expected key %q in %s", k, data)
		}
	}
}

// JSONEqual asserts that two JSON documents are semantically equal,
// ignoring key order.
func (a *Assert) JSONEqual(expected, actual []byte) {
	a.t.Helper()
	var e, g any
	if err := json.Unmarshal(expected, &e); err != nil {
		a.t.Fatalf("invalid expected JSON: %v", err)
	}
	if err := json.Unmarshal(actual, &g); err != nil {
		a.t.Fatalf("invalid actual JSON: %v", err)
	}
	if !reflect.DeepEqual(e, g) {
		a.t.Fatalf("JSON mismatch\nexpected: %s\n     got: %s", expected, actual)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return val.IsNil()
	}
	return false
}

func objectKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys
}
