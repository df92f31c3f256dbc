package authapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shape identifies which login response layout carried the token.
type Shape int

const (
	// ShapeFlat is {"token": "...", "userId": ...}.
	ShapeFlat Shape = iota + 1
	// ShapeNested is {"data": {"token": "...", "userId": ...}}.
	ShapeNested
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Result is a successful login exchange.
type Result struct {
	Token  string
	UserID string
	Shape  Shape
}

// ParseLoginResponse extracts the bearer token from a login response body.
// The flat shape is tried first, then the nested one. A body where neither
// yields a non-blank token is an ErrInvalidResponseFormat.
func ParseLoginResponse(body []byte) (Result, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Result{}, invalidFormat("body is not a JSON object")
	}

	if res, ok := parseFlat(top); ok {
		res.Shape = ShapeFlat
		return res, nil
	}

	if raw, ok := top["data"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			if res, ok := parseFlat(nested); ok {
				res.Shape = ShapeNested
				return res, nil
			}
		}
	}

	return Result{}, invalidFormat("no token in response")
}

func parseFlat(fields map[string]json.RawMessage) (Result, bool) {
	raw, ok := fields["token"]
	if !ok {
		return Result{}, false
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil || strings.TrimSpace(token) == "" {
		return Result{}, false
	}
	return Result{Token: token, UserID: parseUserID(fields["userId"])}, true
}

// parseUserID accepts the identifier as a JSON string or number.
func parseUserID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func invalidFormat(reason string) error {
	return fmt.Errorf("%w: %w: %s", ErrAuthFailure, ErrInvalidResponseFormat, reason)
}
