package models

import (
	"bytes"
	"encoding/json"
)

// FlexText is a request field that accepts either a JSON string or a
// structured JSON value (list or object). Structured input is stored as its
// compact JSON text; reading it back always yields the text form.
type FlexText struct {
	Text string
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &f.Text)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	f.Text = buf.String()
	return nil
}

// MarshalJSON writes the stored text form.
func (f FlexText) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Text)
}

// Ptr returns the stored text as a column value.
func (f *FlexText) Ptr() *string {
	if f == nil {
		return nil
	}
	s := f.Text
	return &s
}
