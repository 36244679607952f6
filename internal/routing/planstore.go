package routing

import (
	"sync"
	"time"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// PlanStore holds recently returned route plans in memory so a client can
// start navigation on one by ID. Entries expire after the TTL.
type PlanStore struct {
	mu    sync.Mutex
	plans map[string]storedPlan
	ttl   time.Duration
	now   func() time.Time
}

type storedPlan struct {
	plan      models.RoutePlan
	expiresAt time.Time
}

// NewPlanStore creates a plan store with the given entry TTL.
func NewPlanStore(ttl time.Duration) *PlanStore {
	return &PlanStore{
		plans: make(map[string]storedPlan),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores plans under their IDs.
func (s *PlanStore) Put(plans []models.RoutePlan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := s.now().Add(s.ttl)
	for _, p := range plans {
		s.plans[p.ID] = storedPlan{plan: p, expiresAt: expiry}
	}

	// Opportunistic sweep of expired entries.
	now := s.now()
	for id, sp := range s.plans {
		if sp.expiresAt.Before(now) {
			delete(s.plans, id)
		}
	}
}

// Get returns a stored plan by ID, or false when absent or expired.
func (s *PlanStore) Get(id string) (models.RoutePlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.plans[id]
	if !ok || sp.expiresAt.Before(s.now()) {
		return models.RoutePlan{}, false
	}
	return sp.plan, true
}
