package source_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/xraph/trigger/event"
	"github.com/xraph/trigger/integration"
	"github.com/xraph/trigger/source"
)

func noopHandler(context.Context, source.Descriptor, source.Request, *slog.Logger) (*source.HandleResult, error) {
	return nil, nil
}

func TestRegistry_MergesEvents(t *testing.T) {
	r := source.NewRegistry()

	r.Register(source.Metadata{Key: "github.repo", Channel: source.ChannelHTTP, Events: []string{"push"}}, noopHandler)
	r.Register(source.Metadata{Key: "github.repo", Channel: source.ChannelHTTP, Events: []string{"issue"}}, noopHandler)
	r.Register(source.Metadata{Key: "github.repo", Channel: source.ChannelHTTP, Events: []string{"push"}}, noopHandler)

	m, ok := r.Metadata("github.repo")
	if !ok {
		t.Fatal("expected source to be registered")
	}
	if len(m.Events) != 2 || m.Events[0] != "issue" || m.Events[1] != "push" {
		t.Errorf("events = %v, want [issue push]", m.Events)
	}
}

func TestRegistry_HandlerOverwritten(t *testing.T) {
	r := source.NewRegistry()

	first := func(context.Context, source.Descriptor, source.Request, *slog.Logger) (*source.HandleResult, error) {
		return &source.HandleResult{Events: []event.Send{{Name: "first"}}}, nil
	}
	second := func(context.Context, source.Descriptor, source.Request, *slog.Logger) (*source.HandleResult, error) {
		return &source.HandleResult{Events: []event.Send{{Name: "second"}}}, nil
	}
	r.Register(source.Metadata{Key: "k"}, first)
	r.Register(source.Metadata{Key: "k"}, second)

	h, ok := r.Handler("k")
	if !ok {
		t.Fatal("expected handler")
	}
	res, _ := h(context.Background(), source.Descriptor{}, source.Request{}, slog.Default())
	if res.Events[0].Name != "second" {
		t.Errorf("handler = %q, want latest", res.Events[0].Name)
	}
}

func TestRegistry_AllOrderedByKey(t *testing.T) {
	r := source.NewRegistry()
	r.Register(source.Metadata{Key: "b"}, noopHandler)
	r.Register(source.Metadata{Key: "a"}, noopHandler)

	all := r.All()
	if len(all) != 2 || all[0].Key != "a" || all[1].Key != "b" {
		t.Errorf("All() = %+v", all)
	}
	if all[0].Events == nil {
		t.Error("events should serialize as an empty array")
	}
	if _, ok := r.Handler("missing"); ok {
		t.Error("expected no handler for unknown key")
	}
}

func TestHandleResult_Delivery(t *testing.T) {
	var nilResult *source.HandleResult
	ack := nilResult.Delivery()
	if len(ack.Events) != 0 || ack.Events == nil || ack.Response.Status != http.StatusOK {
		t.Errorf("nil result = %+v", ack)
	}

	data, err := json.Marshal(ack)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"events":[],"response":{"status":200,"body":{"ok":true}}}` {
		t.Errorf("ack JSON = %s", data)
	}

	custom := (&source.HandleResult{
		Events:   []event.Send{{Name: "push"}},
		Response: &source.Response{Status: http.StatusAccepted},
	}).Delivery()
	if len(custom.Events) != 1 || custom.Response.Status != http.StatusAccepted {
		t.Errorf("custom = %+v", custom)
	}

	eventsOnly := (&source.HandleResult{Events: []event.Send{{Name: "push"}}}).Delivery()
	if eventsOnly.Response.Status != http.StatusOK {
		t.Errorf("missing response should default, got %+v", eventsOnly.Response)
	}
}

func TestHTTPSource_Key(t *testing.T) {
	s := &source.HTTPSource{ID: "github.repo"}
	if got := s.Key(nil); got != "github.repo" {
		t.Errorf("Key = %q", got)
	}

	s.KeyFunc = func(params json.RawMessage) string {
		var p struct {
			Repo string `json:"repo"`
		}
		_ = json.Unmarshal(params, &p)
		return p.Repo
	}
	if got := s.Key(json.RawMessage(`{"repo":"acme/api"}`)); got != "github.repo.acme/api" {
		t.Errorf("Key = %q", got)
	}
}

func TestMetadataFor_ClientID(t *testing.T) {
	hosted := &source.HTTPSource{ID: "gh", Integ: &integration.Func{Key: "github"}}
	local := &source.HTTPSource{ID: "sl", Integ: &integration.Func{Key: "slack", LocalAuth: true}}
	spec := &event.Specification{Name: "push"}

	m := source.MetadataFor(source.AttachOptions{Key: "gh", Source: hosted, Event: spec})
	if m.ClientID != "github" || m.Channel != source.ChannelHTTP || m.Events[0] != "push" {
		t.Errorf("hosted metadata = %+v", m)
	}

	m = source.MetadataFor(source.AttachOptions{Key: "sl", Source: local, Event: spec})
	if m.ClientID != "" {
		t.Errorf("local-auth source should omit clientId, got %q", m.ClientID)
	}
	data, _ := json.Marshal(m)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["clientId"]; ok {
		t.Errorf("clientId serialized for local auth: %s", data)
	}
}
