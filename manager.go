package filelock

import (
	"context"

	"github.com/enverbisevac/filelock/errors"
	"github.com/enverbisevac/filelock/timeutil"
)

// Manager selects the configured strategy for new locks and owns the
// lifecycle of the periodic refresh cycle. Construct one per process
// and pass it to callers; there is no process-wide state.
type Manager struct {
	config    Config
	advisory  Strategy
	link      Strategy
	refresher *refresher
}

// New creates a Manager. Returns ConfigurationError when the resulting
// configuration is invalid.
func New(options ...Option) (*Manager, error) {
	config := DefaultConfig()
	for _, opt := range options {
		opt.Apply(&config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Clock == nil {
		config.Clock = timeutil.System
	}

	m := &Manager{
		config:   config,
		advisory: newAdvisoryStrategy(),
		link:     newLinkStrategy(config.Timeout, config.Clock),
	}
	m.refresher = newRefresher(m.RefreshAll, config.RefreshRate)
	return m, nil
}

// Acquire attempts non-blocking acquisition of the lock at path using
// the configured strategy. A hand-built Config with an unrecognized
// type surfaces as ConfigurationError here, never as undefined
// behavior.
func (m *Manager) Acquire(ctx context.Context, path string) (Lock, error) {
	switch m.config.Type {
	case TypeAdvisory:
		return m.advisory.Acquire(ctx, path)
	case TypeLinkBased:
		return m.link.Acquire(ctx, path)
	}
	return nil, errors.Configuration("unknown lock type %q", m.config.Type)
}

// RefreshAll renews liveness evidence for every held lock regardless of
// which strategy created it; each strategy no-ops for locks it does not
// hold. A single refresh tick therefore covers everything without the
// scheduler tracking per-lock strategy identity.
func (m *Manager) RefreshAll(ctx context.Context) error {
	return errors.Join(
		m.advisory.RefreshAll(ctx),
		m.link.RefreshAll(ctx),
	)
}

// Start begins the periodic refresh cycle at the configured rate. Safe
// to call multiple times; only the first call installs the recurring
// task. A logger placed in ctx with logr receives tick failures.
func (m *Manager) Start(ctx context.Context) {
	m.refresher.Start(ctx)
}

// Stop cancels the refresh cycle and waits for an in-flight tick.
func (m *Manager) Stop() {
	m.refresher.Stop()
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}
