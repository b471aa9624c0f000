package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The service wraps its JSON in prose often enough that strict decoding of
// the whole response is useless. FirstJSONValue pulls the first balanced
// object or array out of the text; everything around it is discarded.

// FirstJSONValue returns the first balanced JSON object or array in s.
func FirstJSONValue(s string) (string, error) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", fmt.Errorf("no JSON value in response")
	}

	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON value in response")
}

// DecodeClaims parses a claim-extraction response into raw claims.
// A response with no claims decodes to an empty slice, not an error;
// the extractor decides whether that is plausible.
func DecodeClaims(response string) ([]RawClaim, error) {
	payload, err := FirstJSONValue(response)
	if err != nil {
		return nil, fmt.Errorf("extract payload: %w", err)
	}

	var claims []RawClaim
	if err := json.Unmarshal([]byte(payload), &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	return claims, nil
}

// DecodeVerdict parses a verification response into a raw verdict.
// A verdict with confidence outside [0,1] is a contract violation and is
// rejected outright rather than clamped.
func DecodeVerdict(response string) (*RawVerdict, error) {
	payload, err := FirstJSONValue(response)
	if err != nil {
		return nil, fmt.Errorf("extract payload: %w", err)
	}

	var verdict RawVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}

	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", verdict.Confidence)
	}

	return &verdict, nil
}
