// Package config checks manager configurations before use and loads
// descriptor sets and transport settings from JSON or YAML documents.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/apiman"
	"github.com/adamwoolhether/apiman/compiler"
	"github.com/adamwoolhether/apiman/internal/validate"
	"github.com/adamwoolhether/apiman/transport"
)

// ErrInvalidDocument is wrapped by every document that fails to load.
var ErrInvalidDocument = errors.New("invalid document")

//go:embed descriptors.schema.json
var descriptorSchema string

var schemaLoader = gojsonschema.NewStringLoader(descriptorSchema)

// ValidateManager reports whether cfg, including its transport settings,
// carries every key of the reference shape. It is a pre-flight check and
// is never run by [apiman.New].
func ValidateManager(cfg apiman.Config) bool {
	return Check(cfg) == nil
}

// ValidateTransport reports whether cfg carries every key of the
// transport reference shape.
func ValidateTransport(cfg transport.Config) bool {
	return Check(cfg) == nil
}

// Check validates v against its declared tags and returns the
// offending fields, named by their json keys.
func Check(v any) error {
	return validate.Struct(v)
}

// LoadDescriptorsFile loads a descriptor set from a JSON or YAML file.
func LoadDescriptorsFile(path string) (map[string]compiler.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening descriptors: %w", err)
	}
	defer f.Close()

	return LoadDescriptors(f)
}

// LoadDescriptors decodes a JSON or YAML document mapping function names to
// descriptors. A string bodyParameters selects raw body mode.
func LoadDescriptors(r io.Reader) (map[string]compiler.Descriptor, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading descriptors: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrInvalidDocument, err)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: normalizing: %w", ErrInvalidDocument, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, fmt.Errorf("validating descriptors against schema: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}

	var descriptors map[string]compiler.Descriptor
	if err := json.Unmarshal(b, &descriptors); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return descriptors, nil
}

// transportDocument is the serializable part of [transport.Config].
type transportDocument struct {
	BaseURL   string            `yaml:"baseUrl"`
	Headers   map[string]string `yaml:"headers"`
	TimeoutMs int               `yaml:"timeoutMs"`
}

// LoadTransport decodes transport settings from a JSON or YAML document with
// the keys baseUrl, headers and timeoutMs. Status predicates and hooks are
// left for the caller to set.
func LoadTransport(r io.Reader) (transport.Config, error) {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)

	var doc transportDocument
	if err := d.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return transport.Config{}, fmt.Errorf("%w: decoding: %w", ErrInvalidDocument, err)
	}

	if doc.TimeoutMs < 0 {
		return transport.Config{}, fmt.Errorf("%w: timeoutMs[%d] must not be negative", ErrInvalidDocument, doc.TimeoutMs)
	}

	if doc.Headers == nil {
		doc.Headers = make(map[string]string)
	}

	return transport.Config{
		BaseURL: doc.BaseURL,
		Headers: doc.Headers,
		Timeout: time.Duration(doc.TimeoutMs) * time.Millisecond,
	}, nil
}
