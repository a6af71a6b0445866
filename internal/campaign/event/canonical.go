package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalJSON produces deterministic JSON output: object keys sorted
// lexicographically, no unnecessary whitespace, no HTML escaping. Two payloads
// that are semantically equal always canonicalize to the same bytes, which
// keeps replayed streams byte-stable.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// Round-trip through any so maps re-encode with sorted keys.
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("encode canonical: %w", err)
	}

	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
