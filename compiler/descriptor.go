package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// RequestType selects the executor operation a compiled function dispatches to.
type RequestType string

// Set of request types. The HTTP verb spellings are accepted as aliases.
const (
	Fetch       RequestType = "fetch"
	Create      RequestType = "create"
	Replace     RequestType = "replace"
	Remove      RequestType = "remove"
	FetchBinary RequestType = "fetch-binary"
)

var aliases = map[RequestType]RequestType{
	Fetch:       Fetch,
	Create:      Create,
	Replace:     Replace,
	Remove:      Remove,
	FetchBinary: FetchBinary,
	"get":       Fetch,
	"post":      Create,
	"put":       Replace,
	"delete":    Remove,
	"image":     FetchBinary,
}

// Canonical resolves aliases. ok is false for unknown request types.
func (rt RequestType) Canonical() (RequestType, bool) {
	c, ok := aliases[rt]
	return c, ok
}

// BodyMode tells how body arguments are assembled.
type BodyMode int

const (
	// BodyKeyed maps one argument per name into a JSON object.
	BodyKeyed BodyMode = iota
	// BodyRaw passes a single argument through as the entire body.
	BodyRaw
)

// BodyParameters is either a keyed list of field names or the raw marker.
// The zero value is an empty keyed list: no body arguments.
type BodyParameters struct {
	Mode  BodyMode
	Names []string
}

// Keyed returns body parameters assembling names into an object.
func Keyed(names ...string) BodyParameters {
	return BodyParameters{Mode: BodyKeyed, Names: names}
}

// Raw returns body parameters taking one argument as the whole body.
func Raw() BodyParameters {
	return BodyParameters{Mode: BodyRaw}
}

// Len is the number of positional arguments the body consumes.
func (b BodyParameters) Len() int {
	if b.Mode == BodyRaw {
		return 1
	}
	return len(b.Names)
}

// IsEmpty reports whether no body argument is expected.
func (b BodyParameters) IsEmpty() bool {
	return b.Len() == 0
}

// UnmarshalJSON accepts a string, selecting raw mode, or an array of names.
func (b *BodyParameters) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*b = BodyParameters{}
		return nil
	case len(data) > 0 && data[0] == '"':
		*b = Raw()
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("bodyParameters: expect string or array of string: %w", err)
	}
	*b = Keyed(names...)

	return nil
}

// Descriptor declares one endpoint. URL may hold {name} placeholders
// matched by URLParameters.
type Descriptor struct {
	URL            string            `json:"url" validate:"required"`
	RequestType    RequestType       `json:"requestType" validate:"required"`
	URLParameters  []string          `json:"urlParameters" validate:"required"`
	BodyParameters BodyParameters    `json:"bodyParameters"`
	FormParameters []string          `json:"formParameters"`
	Headers        map[string]string `json:"headers" validate:"required"`
	UseAuth        *bool             `json:"useAuth" validate:"required"`
}

// Bool returns a pointer to v, for [Descriptor].UseAuth.
func Bool(v bool) *bool {
	return &v
}

// Arity is the number of positional arguments a compiled function expects.
func (d Descriptor) Arity() int {
	return len(d.URLParameters) + d.BodyParameters.Len() + len(d.FormParameters)
}

func (d Descriptor) clone() Descriptor {
	cpy := d
	cpy.URLParameters = slices.Clone(d.URLParameters)
	cpy.BodyParameters.Names = slices.Clone(d.BodyParameters.Names)
	cpy.FormParameters = slices.Clone(d.FormParameters)
	cpy.Headers = maps.Clone(d.Headers)
	if d.UseAuth != nil {
		cpy.UseAuth = Bool(*d.UseAuth)
	}

	return cpy
}
