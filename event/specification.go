package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseFunc decodes and validates a raw payload. It must be deterministic.
type ParseFunc func(raw json.RawMessage) (any, error)

// RunElementsFunc derives display elements for a run from its parsed
// payload. Only used when preprocessing a run.
type RunElementsFunc func(payload any) ([]RunElement, error)

// RunElement is a label/value pair shown alongside a run.
type RunElement struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	URL   string `json:"url,omitempty"`
}

// Example is a sample payload shown in the backend UI.
type Example struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Specification describes one named event and how to parse its payload.
type Specification struct {
	Name     string
	Title    string
	Source   string
	Icon     string
	Examples []Example

	// Parse decodes the raw payload. Nil means decode into a generic value.
	Parse ParseFunc

	// RunElements is optional; nil yields no elements.
	RunElements RunElementsFunc
}

// ParsePayload runs Parse, or decodes into a generic JSON value.
func (s *Specification) ParsePayload(raw json.RawMessage) (any, error) {
	if s.Parse != nil {
		v, err := s.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %q payload: %w", s.Name, err)
		}
		return v, nil
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse %q payload: %w", s.Name, err)
	}
	return v, nil
}

// Elements computes run elements for a parsed payload. The result is never
// nil so it serializes as an empty array.
func (s *Specification) Elements(payload any) ([]RunElement, error) {
	if s.RunElements == nil {
		return []RunElement{}, nil
	}
	els, err := s.RunElements(payload)
	if err != nil {
		return nil, err
	}
	if els == nil {
		els = []RunElement{}
	}
	return els, nil
}

// Descriptor is the serialized form of a specification in the job index.
type Descriptor struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Source   string    `json:"source"`
	Icon     string    `json:"icon"`
	Examples []Example `json:"examples,omitempty"`
}

// Descriptor returns the job-index form of s.
func (s *Specification) Descriptor() Descriptor {
	title := s.Title
	if title == "" {
		title = s.Name
	}
	return Descriptor{
		Name:     s.Name,
		Title:    title,
		Source:   s.Source,
		Icon:     s.Icon,
		Examples: s.Examples,
	}
}

// Typed returns a ParseFunc that decodes the payload into T and then runs
// validate, if non-nil.
func Typed[T any](validate func(T) error) ParseFunc {
	return typed(false, validate)
}

// Strict is like Typed but rejects payloads carrying unknown fields.
func Strict[T any](validate func(T) error) ParseFunc {
	return typed(true, validate)
}

func typed[T any](strict bool, validate func(T) error) ParseFunc {
	return func(raw json.RawMessage) (any, error) {
		var t T
		if len(raw) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			if strict {
				dec.DisallowUnknownFields()
			}
			if err := dec.Decode(&t); err != nil {
				return nil, err
			}
		}
		if validate != nil {
			if err := validate(t); err != nil {
				return nil, err
			}
		}
		return t, nil
	}
}

// NewSpecification creates a specification whose payload decodes into T.
func NewSpecification[T any](name, source string, validate func(T) error) *Specification {
	return &Specification{
		Name:   name,
		Title:  name,
		Source: source,
		Parse:  Typed(validate),
	}
}
