package service

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/saferoute/saferoute-backend-go/internal/models"
	"github.com/saferoute/saferoute-backend-go/internal/navigation"
	"github.com/saferoute/saferoute-backend-go/internal/repository"
	"github.com/saferoute/saferoute-backend-go/internal/routing"
)

// positionStreamBuffer bounds how many undelivered position updates a
// session can hold before pushes start dropping.
const positionStreamBuffer = 16

// NavigationService handles business logic for live navigation sessions.
type NavigationService struct {
	manager  *navigation.Manager
	plans    *routing.PlanStore
	sessions *repository.SessionRepository
	ledger   *repository.LedgerRepository
}

// NewNavigationService creates a new navigation service
func NewNavigationService(manager *navigation.Manager, plans *routing.PlanStore, sessions *repository.SessionRepository, ledger *repository.LedgerRepository) *NavigationService {
	return &NavigationService{manager: manager, plans: plans, sessions: sessions, ledger: ledger}
}

// Start begins navigation for a device on a previously returned route plan.
// Any active session for the device is replaced.
func (s *NavigationService) Start(ctx context.Context, deviceID, routeID string) (navigation.StepState, error) {
	plan, ok := s.plans.Get(routeID)
	if !ok {
		return navigation.StepState{}, eris.Wrapf(models.ErrRouteUnavailable,
			"route %s is unknown or expired, request routes again", routeID)
	}

	stream := navigation.NewChannelStream(positionStreamBuffer)
	sess, err := s.manager.Start(ctx, deviceID, &plan, stream)
	if err != nil {
		return navigation.StepState{}, err
	}
	return sess.Snapshot(), nil
}

// Position offers a position update to a session and returns the last
// processed step state plus any outstanding alert prompt.
func (s *NavigationService) Position(sessionID string, pos models.Coordinate, at time.Time) (navigation.StepState, *models.AlertPrompt, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.manager.PushPosition(sessionID, navigation.PositionUpdate{
		Position:  pos,
		Timestamp: at,
	})
}

// Decide records the user's response to a pending safety alert. The bool
// result reports whether the decision had already been recorded.
func (s *NavigationService) Decide(ctx context.Context, sessionID, reviewID, action string) (bool, error) {
	return s.manager.Decide(ctx, sessionID, reviewID, action)
}

// End stops a session. Idempotent for live sessions; unknown IDs fall back
// to the persisted record so ending twice stays benign.
func (s *NavigationService) End(sessionID string) error {
	err := s.manager.End(sessionID)
	if err == nil {
		return nil
	}
	if !eris.Is(err, models.ErrSessionNotFound) {
		return err
	}

	rec, repoErr := s.sessions.Get(sessionID)
	if repoErr != nil {
		return eris.Wrap(repoErr, "navigation service: load session")
	}
	if rec == nil {
		return err
	}
	if rec.State == models.SessionEnded {
		return nil
	}
	return s.sessions.SetState(sessionID, models.SessionEnded)
}

// SessionDetail is the persisted session view plus its route history and
// alert ledger.
type SessionDetail struct {
	Session models.NavigationSessionRecord `json:"session"`
	Routes  []string                       `json:"route_ids"`
	Alerts  []models.SafetyAlertHandled    `json:"alerts"`
}

// Get returns a session's persisted record, route history, and handled
// alerts, or nil for unknown IDs. Works for ended sessions too.
func (s *NavigationService) Get(sessionID string) (*SessionDetail, error) {
	rec, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "navigation service: load session")
	}
	if rec == nil {
		return nil, nil
	}

	routes, err := s.sessions.RouteIDs(sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "navigation service: load routes")
	}

	alerts, err := s.ledger.ListBySession(sessionID)
	if err != nil {
		return nil, eris.Wrap(err, "navigation service: load ledger")
	}

	return &SessionDetail{Session: *rec, Routes: routes, Alerts: alerts}, nil
}
