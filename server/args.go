package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Key is a rating key. Callers send it as a number or a string.
type Key string

func (k *Key) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*k = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = Key(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rating key must be a number or string: %w", err)
	}
	*k = Key(n.String())
	return nil
}

func (k Key) String() string { return string(k) }

// Int returns the key as a number, or 0 when it is not numeric.
func (k Key) Int() int {
	n, _ := strconv.Atoi(string(k))
	return n
}

// keys converts a list of Keys to strings.
func keys(ks []Key) []string {
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		if k != "" {
			out = append(out, string(k))
		}
	}
	return out
}
