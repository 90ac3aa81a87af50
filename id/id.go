// Package id defines prefixed, sortable identifiers for trigger entities.
//
// Every generated ID has the form "prefix_suffix" where the suffix is a
// UUIDv7 in hex without dashes, so IDs sort by creation time and are safe
// to put in URLs and headers.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefix identifies the entity type encoded in an ID.
type Prefix string

// Prefix constants for generated identifiers.
const (
	PrefixExecution Prefix = "exec"
	PrefixEvent     Prefix = "evt"
	PrefixDelivery  Prefix = "dlv"
)

// ID is a prefix-qualified, globally unique, sortable identifier.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	prefix Prefix
	uuid   uuid.UUID
	valid  bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is empty or contains an underscore (programming error).
func New(prefix Prefix) ID {
	if prefix == "" || strings.Contains(string(prefix), "_") {
		panic(fmt.Sprintf("id: invalid prefix %q", prefix))
	}

	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source fails.
		u = uuid.New()
	}

	return ID{prefix: prefix, uuid: u, valid: true}
}

// Parse parses an ID string (e.g. "exec_0190b4c2e0f27c3a8f1e6b9d2c4a5f10").
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	i := strings.LastIndexByte(s, '_')
	if i <= 0 || i == len(s)-1 {
		return Nil, fmt.Errorf("id: parse %q: missing prefix", s)
	}

	u, err := uuid.Parse(s[i+1:])
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{prefix: Prefix(s[:i]), uuid: u, valid: true}, nil
}

// ParseWithPrefix parses an ID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// NewExecutionID generates a new execution ID.
func NewExecutionID() ID { return New(PrefixExecution) }

// runNamespace scopes name-based execution IDs.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("trigger:run"))

// ExecutionIDFor returns the execution ID of the run with the given ID.
// The result is stable across redeliveries of the same run. An empty runID
// yields a fresh random ID.
func ExecutionIDFor(runID string) ID {
	if runID == "" {
		return NewExecutionID()
	}
	return ID{prefix: PrefixExecution, uuid: uuid.NewSHA1(runNamespace, []byte(runID)), valid: true}
}

// NewEventID generates a new event ID.
func NewEventID() ID { return New(PrefixEvent) }

// NewDeliveryID generates a new webhook delivery ID.
func NewDeliveryID() ID { return New(PrefixDelivery) }

// String returns the full "prefix_suffix" representation.
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return string(i.prefix) + "_" + strings.ReplaceAll(i.uuid.String(), "-", "")
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return i.prefix
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
