package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adamwoolhether/apiman/executor"
	"github.com/adamwoolhether/apiman/internal/validate"
)

// Executor is the set of operations a compiled function dispatches to.
// [*executor.Executor] satisfies it.
type Executor interface {
	Fetch(ctx context.Context, url string, header map[string]string, useAuth bool) (any, error)
	Replace(ctx context.Context, url string, body any, header map[string]string, useAuth bool) (any, error)
	CreateWithBody(ctx context.Context, url string, body any, header map[string]string, useAuth bool) (any, error)
	CreateWithForm(ctx context.Context, url string, form *executor.Form, header map[string]string, useAuth bool) (any, error)
	Remove(ctx context.Context, url string, header map[string]string, useAuth bool) (any, error)
	FetchBinary(ctx context.Context, url string, header map[string]string, useAuth bool) (string, error)
}

// Func is a compiled request function. args are matched positionally to the
// descriptor's URL, body and form parameters, in that order.
type Func func(ctx context.Context, args ...any) (any, error)

// Validate checks that d declares everything a compiled function needs.
func Validate(name string, d Descriptor) error {
	if err := validate.Struct(d); err != nil {
		return &ConfigurationError{
			Name:   name,
			Reason: "missing one or more of the following properties: url, requestType, urlParameters, useAuth, headers",
			Err:    err,
		}
	}

	if rt, _ := d.RequestType.Canonical(); rt == Create && len(d.FormParameters) > 0 && !d.BodyParameters.IsEmpty() {
		return configErr(name, "create request declares both body and form parameters")
	}

	return nil
}

// Compile validates d and returns a function issuing its request through ex.
// d is copied; later changes to it do not affect the returned function.
func Compile(name string, d Descriptor, ex Executor, optFns ...Option) (Func, error) {
	if ex == nil {
		return nil, errors.New("executor must not be nil")
	}

	if err := Validate(name, d); err != nil {
		return nil, err
	}

	opts := options{
		result: func(v any) any { return v },
		err:    func(err error) error { return err },
	}
	for _, opt := range optFns {
		opt(&opts)
	}

	d = d.clone()

	fn := func(ctx context.Context, args ...any) (any, error) {
		req, err := bind(name, d, args)
		if err != nil {
			return nil, err
		}

		rt, _ := d.RequestType.Canonical()
		dispatch, ok := dispatchers[rt]
		if !ok {
			return nil, configErr(name, "invalid request type %q; must be one of fetch, create, replace, remove or fetch-binary", d.RequestType)
		}

		res, err := dispatch(ctx, ex, d, req)
		if err != nil {
			return nil, opts.err(err)
		}

		// data URIs are returned as-is.
		if rt == FetchBinary {
			return res, nil
		}

		return opts.result(res), nil
	}

	return fn, nil
}

// /////////////////////////////////////////////////////////////////

// request is one call's arguments bound to a descriptor.
type request struct {
	url  string
	body any
	form *executor.Form
}

func bind(name string, d Descriptor, args []any) (request, error) {
	if d.BodyParameters.Mode != BodyKeyed && d.BodyParameters.Mode != BodyRaw {
		return request{}, configErr(name, "invalid body parameters; expect raw or keyed names")
	}

	if len(args) != d.Arity() {
		return request{}, configErr(name, "invalid number of parameters; expected %d, but got %d", d.Arity(), len(args))
	}

	url := d.URL
	for i, param := range d.URLParameters {
		url = strings.Replace(url, "{"+param+"}", fmt.Sprint(args[i]), 1)
	}

	offset := len(d.URLParameters)

	var body any
	switch d.BodyParameters.Mode {
	case BodyRaw:
		body = args[offset]
	default:
		fields := make(map[string]any, len(d.BodyParameters.Names))
		for i, key := range d.BodyParameters.Names {
			fields[key] = args[offset+i]
		}
		body = fields
	}

	offset += d.BodyParameters.Len()

	form := &executor.Form{}
	for i, key := range d.FormParameters {
		form.Add(key, args[offset+i])
	}

	return request{url: url, body: body, form: form}, nil
}

type dispatchFn func(ctx context.Context, ex Executor, d Descriptor, req request) (any, error)

var dispatchers = map[RequestType]dispatchFn{
	Fetch: func(ctx context.Context, ex Executor, d Descriptor, req request) (any, error) {
		return ex.Fetch(ctx, req.url, d.Headers, *d.UseAuth)
	},
	Create: func(ctx context.Context, ex Executor, d Descriptor, req request) (any, error) {
		if req.form.Len() > 0 {
			return ex.CreateWithForm(ctx, req.url, req.form, d.Headers, *d.UseAuth)
		}
		return ex.CreateWithBody(ctx, req.url, req.body, d.Headers, *d.UseAuth)
	},
	Replace: func(ctx context.Context, ex Executor, d Descriptor, req request) (any, error) {
		return ex.Replace(ctx, req.url, req.body, d.Headers, *d.UseAuth)
	},
	Remove: func(ctx context.Context, ex Executor, d Descriptor, req request) (any, error) {
		return ex.Remove(ctx, req.url, d.Headers, *d.UseAuth)
	},
	FetchBinary: func(ctx context.Context, ex Executor, _ Descriptor, req request) (any, error) {
		uri, err := ex.FetchBinary(ctx, req.url, nil, false)
		if err != nil {
			return nil, err
		}
		return uri, nil
	},
}
