/*
provider.go - Static residency provider

PURPOSE:
  An in-process ResidencyProvider backed by a seeded address table. Demos
  and tests use it in place of a real geocoding service; it also serves as
  the reference implementation of the provider contract (including how a
  provider signals failure).

BEHAVIOR:
  - Known address: returns the seeded fact.
  - Unknown address: returns a confident non-resident fact. Absence of
    evidence is a definitive "not in a zone", not an error.
  - Failing address (or provider marked down): returns an error, which the
    engine wraps and propagates. The engine never guesses on failure.

SEE ALSO:
  - compliance/residency.go: provider contract and trust rule
*/
package program

import (
	"context"
	"errors"
	"sync"

	"github.com/zoneline/compliance-engine/compliance"
)

var errProviderDown = errors.New("residency provider unavailable")

// StaticProvider resolves addresses from a seeded table.
type StaticProvider struct {
	mu    sync.RWMutex
	facts map[string]compliance.ResidencyFact
	fail  map[string]bool
	down  bool
}

var _ compliance.ResidencyProvider = (*StaticProvider)(nil)

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		facts: make(map[string]compliance.ResidencyFact),
		fail:  make(map[string]bool),
	}
}

// Seed registers the fact returned for an address.
func (p *StaticProvider) Seed(address string, fact compliance.ResidencyFact) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.facts[address] = fact
}

// SeedFailure makes lookups for an address fail, simulating a partial
// provider outage.
func (p *StaticProvider) SeedFailure(address string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[address] = true
}

// SetDown toggles a full provider outage.
func (p *StaticProvider) SetDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

func (p *StaticProvider) ResolveResidency(ctx context.Context, address string) (compliance.ResidencyFact, error) {
	if err := ctx.Err(); err != nil {
		return compliance.ResidencyFact{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.down || p.fail[address] {
		return compliance.ResidencyFact{}, errProviderDown
	}
	if fact, ok := p.facts[address]; ok {
		return fact, nil
	}
	// Unknown address: confidently not a zone resident.
	return compliance.ResidencyFact{
		QualifyingResident: false,
		ZoneType:           compliance.ZoneNone,
		Confidence:         1.0,
	}, nil
}
