// Package apiman builds request functions from declarative endpoint
// descriptors, all sharing one configured transport.
package apiman

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/adamwoolhether/apiman/compiler"
	"github.com/adamwoolhether/apiman/executor"
	"github.com/adamwoolhether/apiman/internal/debugid"
	"github.com/adamwoolhether/apiman/transport"
)

// Config is supplied once per [Manager]. The validate tags describe the
// complete reference shape used by the config package's pre-flight check;
// [New] itself accepts absent hooks and auth.
type Config struct {
	Transport     transport.Config        `json:"transport"`
	AuthHeader    executor.AuthHeaderFunc `json:"authHeader" validate:"required"`
	BeforeRequest []executor.BeforeHook   `json:"beforeRequest" validate:"required"`
	AfterRequest  []executor.AfterHook    `json:"afterRequest" validate:"required"`
}

// Manager composes the shared transport, the executor bound to it and
// the compiler.
type Manager struct {
	transport   *transport.Handle
	executor    *executor.Executor
	compileOpts []compiler.Option
	id          string
	logger      *slog.Logger
}

// New instantiates a [Manager] from cfg.
func New(cfg Config, optFns ...Option) (*Manager, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying manager option: %w", err)
		}
	}

	m := &Manager{
		id:     debugid.New(),
		logger: slog.Default(),
	}
	if opts.logger != nil {
		m.logger = opts.logger
	}

	transportOpts := append([]transport.Option{transport.WithLogger(m.logger)}, opts.transportOpts...)
	h, err := transport.Build(cfg.Transport, transportOpts...)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}

	executorOpts := []executor.Option{
		executor.WithLogger(m.logger),
		executor.WithID(m.id),
		executor.WithAuthHeader(cfg.AuthHeader),
		executor.WithBeforeRequest(cfg.BeforeRequest...),
		executor.WithAfterRequest(cfg.AfterRequest...),
	}
	if opts.tracer != nil {
		executorOpts = append(executorOpts, executor.WithTracer(opts.tracer))
	}
	if opts.useJSONNum {
		executorOpts = append(executorOpts, executor.WithJSONNumber())
	}

	ex, err := executor.New(h, executorOpts...)
	if err != nil {
		return nil, fmt.Errorf("building executor: %w", err)
	}

	m.transport = h
	m.executor = ex
	m.compileOpts = opts.compileOpts
	m.logger = m.logger.With("manager_id", m.id)

	m.logger.Debug("manager created", "transport_id", h.ID(), "base_url", cfg.Transport.BaseURL)

	return m, nil
}

// Compile validates d and returns its request function.
func (m *Manager) Compile(name string, d compiler.Descriptor) (compiler.Func, error) {
	fn, err := compiler.Compile(name, d, m.executor, m.compileOpts...)
	if err != nil {
		return nil, err
	}

	return fn, nil
}

// CompileAll compiles every descriptor. If any entry is invalid no function
// is returned and the error names that entry. Entries are checked in name order.
func (m *Manager) CompileAll(descriptors map[string]compiler.Descriptor) (map[string]compiler.Func, error) {
	fns := make(map[string]compiler.Func, len(descriptors))

	for _, name := range slices.Sorted(maps.Keys(descriptors)) {
		fn, err := m.Compile(name, descriptors[name])
		if err != nil {
			return nil, fmt.Errorf("compiling %q: %w", name, err)
		}
		fns[name] = fn
	}

	m.logger.Debug("functions compiled", "count", len(fns))

	return fns, nil
}

// Executor returns the shared request executor.
func (m *Manager) Executor() *executor.Executor {
	return m.executor
}

// Transport returns the shared transport handle.
func (m *Manager) Transport() *transport.Handle {
	return m.transport
}

// ID returns the manager's debug token, used only in log records.
func (m *Manager) ID() string {
	return m.id
}
