package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answer sources accepted in a FieldAnswer
const (
	SourceProfile        = "profile"
	SourceResume         = "resume"
	SourceJobDescription = "job_description"
	SourceInferred       = "inferred"
)

// ValidSources lists every accepted FieldAnswer source
var ValidSources = []string{SourceProfile, SourceResume, SourceJobDescription, SourceInferred}

// FieldQuestion is one form field scraped from a job application page
type FieldQuestion struct {
	FieldID      string          `json:"field_id" validate:"required"`
	Label        string          `json:"label"`
	FieldType    string          `json:"field_type"`
	Required     bool            `json:"required"`
	Options      []string        `json:"options"`
	CurrentValue json.RawMessage `json:"current_value,omitempty"`
}

// FieldAnswer is a proposed value for one FieldQuestion. Value is an opaque
// JSON document whose shape depends on the field type.
type FieldAnswer struct {
	FieldID    string          `json:"field_id"`
	Value      json.RawMessage `json:"value"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
	Source     string          `json:"source"`
}

// StringValue encodes s as a JSON string value
func StringValue(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// ClampConfidence limits c to [0, 1]
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// AnswerRequest asks for answers to a list of form fields
type AnswerRequest struct {
	Site           string          `json:"site"`
	JobURL         string          `json:"job_url"`
	JobTitle       string          `json:"job_title"`
	Company        string          `json:"company"`
	JobDescription string          `json:"job_description"`
	Fields         []FieldQuestion `json:"fields" validate:"dive"`
	Profile        *Profile        `json:"profile,omitempty"`

	// RawProfile is the profile override exactly as received
	RawProfile json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the request and keeps the raw profile override so
// it can be validated like a stored document.
func (r *AnswerRequest) UnmarshalJSON(data []byte) error {
	type plain AnswerRequest
	var wire struct {
		plain
		RawProfile json.RawMessage `json:"profile"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = AnswerRequest(wire.plain)
	if len(wire.RawProfile) > 0 && !bytes.Equal(wire.RawProfile, []byte("null")) {
		var profile Profile
		if err := json.Unmarshal(wire.RawProfile, &profile); err != nil {
			return err
		}
		r.Profile = &profile
		r.RawProfile = wire.RawProfile
	}
	return nil
}

// FieldIDs returns the set of field ids in the request
func (r AnswerRequest) FieldIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Fields))
	for _, f := range r.Fields {
		ids[f.FieldID] = struct{}{}
	}
	return ids
}

// DuplicateFieldID returns the first field id that appears more than once
func (r AnswerRequest) DuplicateFieldID() (string, bool) {
	seen := make(map[string]struct{}, len(r.Fields))
	for _, f := range r.Fields {
		if _, ok := seen[f.FieldID]; ok {
			return f.FieldID, true
		}
		seen[f.FieldID] = struct{}{}
	}
	return "", false
}

// AnswerResponse carries the winning answer per field
type AnswerResponse struct {
	Answers *OrderedAnswers `json:"answers"`
	UsedLLM bool            `json:"used_llm"`
	Model   string          `json:"model"`
	Message string          `json:"message"`
}

// OrderedAnswers maps field_id to FieldAnswer and remembers insertion order.
// Overwriting an existing key keeps its original position.
type OrderedAnswers struct {
	keys   []string
	values map[string]FieldAnswer
}

// NewOrderedAnswers returns an empty mapping
func NewOrderedAnswers() *OrderedAnswers {
	return &OrderedAnswers{values: make(map[string]FieldAnswer)}
}

// Set inserts or overwrites the answer for a.FieldID
func (o *OrderedAnswers) Set(a FieldAnswer) {
	if _, ok := o.values[a.FieldID]; !ok {
		o.keys = append(o.keys, a.FieldID)
	}
	o.values[a.FieldID] = a
}

// Get returns the answer for fieldID
func (o *OrderedAnswers) Get(fieldID string) (FieldAnswer, bool) {
	a, ok := o.values[fieldID]
	return a, ok
}

// Len returns the number of answers
func (o *OrderedAnswers) Len() int {
	return len(o.keys)
}

// Keys returns field ids in insertion order
func (o *OrderedAnswers) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Values returns answers in insertion order
func (o *OrderedAnswers) Values() []FieldAnswer {
	out := make([]FieldAnswer, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.values[k])
	}
	return out
}

// MarshalJSON writes the mapping as a JSON object in insertion order
func (o *OrderedAnswers) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the document's key order
func (o *OrderedAnswers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("answers must be a JSON object")
	}

	o.keys = nil
	o.values = make(map[string]FieldAnswer)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected answers key %v", tok)
		}
		var a FieldAnswer
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("answer %q: %w", key, err)
		}
		if a.FieldID == "" {
			a.FieldID = key
		}
		if _, exists := o.values[key]; !exists {
			o.keys = append(o.keys, key)
		}
		o.values[key] = a
	}
	_, err = dec.Token()
	return err
}
