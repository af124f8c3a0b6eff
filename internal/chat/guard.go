package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Purger forgets the stored identity.
type Purger interface {
	Purge(ctx context.Context) error
}

// Guard decides at session end whether the identity survives.
// Install captures the save preference; End acts on the captured value once.
type Guard struct {
	purger Purger
	logger *zerolog.Logger

	mu        sync.Mutex
	installed bool
	save      bool
}

// NewGuard creates an uninstalled guard.
func NewGuard(p Purger, logger *zerolog.Logger) *Guard {
	return &Guard{purger: p, logger: logger}
}

// Install arms the guard with the current preference, replacing any earlier one.
func (g *Guard) Install(save bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.installed = true
	g.save = save
}

// Uninstall disarms the guard; a later End does nothing.
func (g *Guard) Uninstall() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.installed = false
}

// Installed reports whether End would act.
func (g *Guard) Installed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.installed
}

// End runs the end-of-session hook: purge the identity if the installed preference
// is "discard". The guard is disarmed afterwards. It reports whether a purge happened.
func (g *Guard) End(ctx context.Context) (bool, error) {
	g.mu.Lock()
	installed, save := g.installed, g.save
	g.installed = false
	g.mu.Unlock()

	if !installed || save {
		return false, nil
	}
	if err := g.purger.Purge(ctx); err != nil {
		g.logger.Warn().Err(err).Msg("failed to purge identity at session end")
		return false, err
	}
	g.logger.Info().Msg("identity purged at session end")
	return true, nil
}
