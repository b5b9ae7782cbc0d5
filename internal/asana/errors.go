package asana

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseError reports a response body that is not valid JSON.
type ParseError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: invalid JSON response (HTTP %d): %q", e.Path, e.StatusCode, e.Body)
}

// ShapeError reports a response that is valid JSON but lacks an expected key.
type ShapeError struct {
	Path   string
	Key    string
	Reason string
}

func (e *ShapeError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing key"
	}
	return fmt.Sprintf("unexpected response from %s: %s: %s", e.Path, e.Key, reason)
}

// field returns r[key], failing if the key is absent. A present null
// value is returned as-is.
func field(r gjson.Result, path, key string) (gjson.Result, error) {
	v := r.Get(key)
	if !v.Exists() {
		return gjson.Result{}, &ShapeError{Path: path, Key: key}
	}
	return v, nil
}

// stringField returns r[key] as a string, failing if the key is absent.
func stringField(r gjson.Result, path, key string) (string, error) {
	v, err := field(r, path, key)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// nullableString returns nil for a null value and the string otherwise.
func nullableString(r gjson.Result, path, key string) (*string, error) {
	v, err := field(r, path, key)
	if err != nil {
		return nil, err
	}
	if v.Type == gjson.Null {
		return nil, nil
	}
	s := v.String()
	return &s, nil
}
