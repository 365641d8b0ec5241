/*
scheduler.go - Automated compliance recalculation scheduler

PURPOSE:
  Periodically recalculates compliance for every organization so the
  snapshot log, grace period state, and alerts stay current without a
  manual trigger. Expired grace periods are deactivated as a side effect
  of the recalculation.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Recalculates each organization independently; one failure does not
    block the rest
  - The engine's per-organization lock makes concurrent manual
    recalculations safe

CONFIGURATION:
  - CheckInterval: How often to recalculate (default: 24 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewComplianceScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: CalculateCompliance endpoint (manual recalculation)
  - compliance/engine.go: CalculateCompliance
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// ComplianceScheduler handles automated periodic recalculation.
type ComplianceScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewComplianceScheduler creates a new scheduler.
func NewComplianceScheduler(handler *Handler) *ComplianceScheduler {
	return &ComplianceScheduler{
		Handler:       handler,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (cs *ComplianceScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.wg.Add(1)

	go cs.run()

	log.Printf("[Scheduler] Started with check interval: %v", cs.CheckInterval)
}

// Stop stops the scheduler.
func (cs *ComplianceScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (cs *ComplianceScheduler) run() {
	defer cs.wg.Done()

	// Run immediately on start
	cs.recalculateAll()

	for {
		select {
		case <-cs.ticker.C:
			cs.recalculateAll()
		case <-cs.stop:
			return
		}
	}
}

func (cs *ComplianceScheduler) recalculateAll() {
	ctx := context.Background()

	orgs, err := cs.Handler.Store.ListOrganizations(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing organizations: %v", err)
		return
	}

	processed := 0
	failed := 0

	for _, org := range orgs {
		snapshot, err := cs.Handler.Engine.CalculateCompliance(ctx, org.ID, nil)
		if err != nil {
			log.Printf("[Scheduler] Error recalculating %s: %v", org.ID, err)
			failed++
			continue
		}
		processed++
		log.Printf("[Scheduler] %s: %s%% (%s)", org.ID, snapshot.Percent.StringFixed(1), snapshot.Status)
	}

	if processed > 0 || failed > 0 {
		log.Printf("[Scheduler] Completed: %d recalculated, %d failed", processed, failed)
	}
}

// RunNow triggers an immediate recalculation pass (for testing/admin).
func (cs *ComplianceScheduler) RunNow() {
	cs.recalculateAll()
}

// GetNextRunTime returns when the next scheduled pass will occur.
func (cs *ComplianceScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(cs.CheckInterval)
}
