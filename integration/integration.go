// Package integration describes third-party services a job talks to and
// the connection credentials the backend supplies for them on each run.
package integration

import "fmt"

// AuthSource tells the backend who owns the credentials of an integration.
type AuthSource string

const (
	// AuthHosted means the backend stores credentials and sends them as a
	// connection on every run.
	AuthHosted AuthSource = "HOSTED"
	// AuthLocal means the application authenticates on its own.
	AuthLocal AuthSource = "LOCAL"
)

// Metadata is the display information reported in the job index.
type Metadata struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions,omitempty"`
}

// Connection is the credential set the backend sends for a hosted
// integration in a run request.
type Connection struct {
	Type             string            `json:"type"`
	AccessToken      string            `json:"accessToken"`
	Scopes           []string          `json:"scopes,omitempty"`
	AdditionalFields map[string]string `json:"additionalFields,omitempty"`
}

// Integration is implemented by integration packages. Client binds an API
// client for one run; conn is nil when the integration uses local auth.
type Integration interface {
	ID() string
	Metadata() Metadata
	UsesLocalAuth() bool
	Client(conn *Connection) (any, error)
}

// Descriptor is the serialized form of an integration inside a job index.
type Descriptor struct {
	ID         string     `json:"id"`
	Metadata   Metadata   `json:"metadata"`
	AuthSource AuthSource `json:"authSource"`
}

// Describe returns the job-index descriptor for i.
func Describe(i Integration) Descriptor {
	src := AuthHosted
	if i.UsesLocalAuth() {
		src = AuthLocal
	}
	return Descriptor{ID: i.ID(), Metadata: i.Metadata(), AuthSource: src}
}

// Func is an Integration backed by a client factory function.
type Func struct {
	Key       string
	Meta      Metadata
	LocalAuth bool
	NewClient func(conn *Connection) (any, error)
}

var _ Integration = (*Func)(nil)

func (f *Func) ID() string          { return f.Key }
func (f *Func) Metadata() Metadata  { return f.Meta }
func (f *Func) UsesLocalAuth() bool { return f.LocalAuth }

// Client calls NewClient. A hosted integration without a connection is an
// error because the backend is expected to supply one.
func (f *Func) Client(conn *Connection) (any, error) {
	if !f.LocalAuth && conn == nil {
		return nil, fmt.Errorf("integration %q: no connection supplied", f.Key)
	}
	if f.NewClient == nil {
		return nil, nil
	}
	return f.NewClient(conn)
}
