package compiler

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Option configures a compiled function.
type Option func(*options)
type options struct {
	result func(any) any
	err    func(error) error
}

// WithResultExtractor maps every resolved payload before it is returned.
// fetch-binary results are never passed through it.
func WithResultExtractor(fn func(any) any) Option {
	return func(o *options) {
		if fn != nil {
			o.result = fn
		}
	}
}

// WithErrorExtractor maps every failure before it is returned.
// Configuration errors are never passed through it.
func WithErrorExtractor(fn func(error) error) Option {
	return func(o *options) {
		if fn != nil {
			o.err = fn
		}
	}
}

// ExtractPath returns a result extractor selecting the value at a gjson path,
// such as "data.items" or "results.#.id". A missing path yields nil.
func ExtractPath(path string) func(any) any {
	return func(v any) any {
		b, err := json.Marshal(v)
		if err != nil {
			return v
		}

		res := gjson.GetBytes(b, path)
		if !res.Exists() {
			return nil
		}

		return res.Value()
	}
}
