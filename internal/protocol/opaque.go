package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Opaque is a backend scalar the dashboard only compares, keys on and echoes
// back. The wire may carry it as a JSON number or string; null is empty.
type Opaque string

func (o Opaque) IsZero() bool {
	return o == ""
}

func (o Opaque) String() string {
	return string(o)
}

func (o *Opaque) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		*o = ""
		return nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("decode opaque string: %w", err)
		}
		*o = Opaque(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("decode opaque value %s: %w", raw, err)
		}
		*o = Opaque(n.String())
		return nil
	}
}
