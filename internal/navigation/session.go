package navigation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// StepState is the navigation UI callback surface for one position update:
// current and next instruction, distance to the turn, and remaining
// distance/time.
type StepState struct {
	SessionID               string              `json:"session_id"`
	State                   models.SessionState `json:"state"`
	StepIndex               int                 `json:"step_index"`
	Instruction             string              `json:"instruction"`
	NextInstruction         string              `json:"next_instruction,omitempty"`
	DistanceToStepEndMeters float64             `json:"distance_to_step_end_m"`
	RemainingDistanceMeters float64             `json:"remaining_distance_m"`
	RemainingMinutes        float64             `json:"remaining_minutes"`
}

// Session is a live navigation session. The session ID is generated once
// and survives every reroute within the trip; a reroute swaps the route
// plan atomically relative to position processing and bumps a generation
// counter so stale reroute responses are discarded.
type Session struct {
	mu sync.Mutex

	id          string
	deviceID    string
	state       models.SessionState
	route       *models.RoutePlan
	destination models.Coordinate
	stepIndex   int
	lastPos     *PositionUpdate
	createdAt   time.Time
	endedAt     *time.Time

	generation      int
	rerouteInFlight bool
	pendingAlert    *models.AlertPrompt

	stream PositionStream
	cfg    config.EngineConfig
}

// NewSession starts a session on a resolved route with an open position
// stream. A nil route is an invalid-state error; a nil stream means the
// position source is unavailable and the session cannot start.
func NewSession(deviceID string, route *models.RoutePlan, stream PositionStream, cfg config.EngineConfig) (*Session, error) {
	if route == nil || len(route.Polyline) == 0 {
		return nil, eris.Wrap(models.ErrInvalidSessionState, "navigation requires a resolved route")
	}
	if stream == nil {
		return nil, eris.Wrap(models.ErrPositionUnavailable, "cannot start session")
	}

	return &Session{
		id:          uuid.NewString(),
		deviceID:    deviceID,
		state:       models.SessionActive,
		route:       route,
		destination: route.Destination(),
		createdAt:   time.Now().UTC(),
		stream:      stream,
		cfg:         cfg,
	}, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// DeviceID returns the owning device.
func (s *Session) DeviceID() string { return s.deviceID }

// CreatedAt returns the session start time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State returns the current lifecycle state.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Route returns the active route plan.
func (s *Session) Route() *models.RoutePlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// Destination returns the trip destination, stable across reroutes.
func (s *Session) Destination() models.Coordinate {
	return s.destination
}

// Record returns the persistable view of the session.
func (s *Session) Record() models.NavigationSessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.NavigationSessionRecord{
		SessionID:        s.id,
		DeviceID:         s.deviceID,
		ActiveRouteID:    s.route.ID,
		CurrentStepIndex: s.stepIndex,
		State:            s.state,
		CreatedAt:        s.createdAt,
		EndedAt:          s.endedAt,
	}
}

// ApplyPosition processes one position update in arrival order: advance
// the step when within the advance radius of the current step's end, then
// report the step state. Rejected once the session has ended.
func (s *Session) ApplyPosition(u PositionUpdate) (StepState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.SessionEnded {
		return StepState{}, eris.Wrap(models.ErrInvalidSessionState, "session has ended")
	}

	s.lastPos = &u

	steps := s.route.Steps
	if s.state == models.SessionActive && len(steps) > 0 {
		current := steps[s.stepIndex]
		if geo.Distance(u.Position, current.EndLocation) < s.cfg.StepAdvanceMeters &&
			s.stepIndex < len(steps)-1 {
			s.stepIndex++
		}
	}

	return s.stepStateLocked(), nil
}

// Snapshot returns the last known step state without applying an update.
func (s *Session) Snapshot() StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepStateLocked()
}

func (s *Session) stepStateLocked() StepState {
	state := StepState{
		SessionID: s.id,
		State:     s.state,
		StepIndex: s.stepIndex,
	}

	steps := s.route.Steps
	if len(steps) == 0 {
		return state
	}

	current := steps[s.stepIndex]
	state.Instruction = current.Instruction
	if s.stepIndex+1 < len(steps) {
		state.NextInstruction = steps[s.stepIndex+1].Instruction
	}

	// Partial distance runs from the current position to the end of the
	// current step, not its start.
	partial := current.DistanceMeters
	if s.lastPos != nil {
		partial = geo.Distance(s.lastPos.Position, current.EndLocation)
	}
	state.DistanceToStepEndMeters = partial

	remaining := partial
	var remainingSeconds float64
	if current.DistanceMeters > 0 {
		remainingSeconds = current.DurationSeconds * (partial / current.DistanceMeters)
	}
	for _, step := range steps[s.stepIndex+1:] {
		remaining += step.DistanceMeters
		remainingSeconds += step.DurationSeconds
	}

	state.RemainingDistanceMeters = remaining
	state.RemainingMinutes = remainingSeconds / 60
	return state
}

// LastPosition returns the most recently applied update, if any.
func (s *Session) LastPosition() *PositionUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPos
}

// BeginReroute transitions Active -> Rerouting and claims the session's
// single outstanding reroute slot. Returns the route generation to pass to
// CompleteReroute/FailReroute and whether the claim succeeded.
func (s *Session) BeginReroute() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.SessionActive || s.rerouteInFlight {
		return 0, false
	}
	s.state = models.SessionRerouting
	s.rerouteInFlight = true
	return s.generation, true
}

// CompleteReroute installs a new route plan: step index resets, session ID
// is unchanged, state returns to Active. A response carrying a stale
// generation (the route changed again, or the session ended) is discarded
// and the method reports false.
func (s *Session) CompleteReroute(generation int, plan *models.RoutePlan) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rerouteInFlight = false
	if s.state == models.SessionEnded || generation != s.generation {
		return false
	}

	s.route = plan
	s.stepIndex = 0
	s.generation++
	s.state = models.SessionActive
	return true
}

// FailReroute abandons a reroute attempt: the session stays on its
// current route and returns to Active.
func (s *Session) FailReroute(generation int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rerouteInFlight = false
	if s.state == models.SessionRerouting && generation == s.generation {
		s.state = models.SessionActive
	}
}

// SetPendingAlert claims the session's single alert prompt slot. Returns
// false when a prompt is already outstanding.
func (s *Session) SetPendingAlert(prompt *models.AlertPrompt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingAlert != nil || s.state == models.SessionEnded {
		return false
	}
	s.pendingAlert = prompt
	return true
}

// PendingAlert returns the outstanding prompt, if any.
func (s *Session) PendingAlert() *models.AlertPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingAlert
}

// ClearPendingAlert releases the prompt slot and returns what was pending.
func (s *Session) ClearPendingAlert() *models.AlertPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	prompt := s.pendingAlert
	s.pendingAlert = nil
	return prompt
}

// End transitions to Ended and closes the position subscription. Bumping
// the generation makes any in-flight reroute response stale. Idempotent.
func (s *Session) End() {
	s.mu.Lock()
	if s.state == models.SessionEnded {
		s.mu.Unlock()
		return
	}
	s.state = models.SessionEnded
	now := time.Now().UTC()
	s.endedAt = &now
	s.generation++
	s.pendingAlert = nil
	s.mu.Unlock()

	s.stream.Unsubscribe()
}

// Ended reports whether the session has ended.
func (s *Session) Ended() bool {
	return s.State() == models.SessionEnded
}
