package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID accepts either a JSON string or a JSON number and keeps it as text.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("summary id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Summary is one generated news summary as returned by the backend.
// CreatedAt is the raw server timestamp, usually without a zone suffix.
type Summary struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}
