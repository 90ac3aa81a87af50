package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/xraph/trigger"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

const schemaBaseURL = "mem://trigger/"

// actionSchemas holds the compiled body schema of every POST action that
// carries a JSON body.
type actionSchemas struct {
	initializeTrigger *jsonschema.Schema
	executeJob        *jsonschema.Schema
	preprocessRun     *jsonschema.Schema
}

var schemas = mustLoadSchemas()

func mustLoadSchemas() *actionSchemas {
	s, err := loadSchemas()
	if err != nil {
		panic(fmt.Sprintf("api: load request schemas: %v", err))
	}
	return s
}

// loadSchemas converts the embedded YAML schemas to JSON and compiles them.
func loadSchemas() (*actionSchemas, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}

		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		jsonData, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", e.Name(), err)
		}

		url := schemaBaseURL + strings.TrimSuffix(e.Name(), ".yaml") + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(jsonData)); err != nil {
			return nil, fmt.Errorf("add %s: %w", e.Name(), err)
		}
	}

	var s actionSchemas
	for name, dst := range map[string]**jsonschema.Schema{
		"initialize_trigger": &s.initializeTrigger,
		"execute_job":        &s.executeJob,
		"preprocess_run":     &s.preprocessRun,
	} {
		compiled, err := compiler.Compile(schemaBaseURL + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		*dst = compiled
	}
	return &s, nil
}

// decoded is the result of decoding one action body: either a value or
// the reason the body was rejected.
type decoded[T any] struct {
	Value   T
	Invalid error
}

// OK reports whether the body was accepted.
func (d decoded[T]) OK() bool { return d.Invalid == nil }

var errEmptyBody = errors.New("empty body")

func invalidBody[T any](err error) decoded[T] {
	return decoded[T]{Invalid: fmt.Errorf("%w: %w", trigger.ErrInvalidBody, err)}
}

// decode validates body against schema and then decodes it into T.
func decode[T any](schema *jsonschema.Schema, body []byte) decoded[T] {
	if len(bytes.TrimSpace(body)) == 0 {
		return invalidBody[T](errEmptyBody)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return invalidBody[T](err)
	}
	if err := schema.Validate(doc); err != nil {
		return invalidBody[T](err)
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return invalidBody[T](err)
	}
	return decoded[T]{Value: v}
}
