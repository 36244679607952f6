package navigation

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/geo"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// ReviewFeed supplies live reviews for the corridor check.
type ReviewFeed interface {
	LowRatedSince(since time.Time, maxRating float64) ([]models.Review, error)
}

// Ledger is the append-only record of handled alerts. MarkHandled must be
// atomic append-if-not-exists on (session_id, review_id).
type Ledger interface {
	MarkHandled(entry models.SafetyAlertHandled) (bool, error)
	HandledReviewIDs(sessionID string) (map[string]bool, error)
}

// AlertManager raises de-duplicated safety alerts when low-rated reviews
// land inside the active route's corridor. Dedup is keyed by session, not
// route plan, so a handled review stays handled across any number of
// reroutes.
type AlertManager struct {
	feed     ReviewFeed
	ledger   Ledger
	rerouter *Rerouter
	cfg      config.EngineConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAlertManager creates an alert manager.
func NewAlertManager(feed ReviewFeed, ledger Ledger, rerouter *Rerouter, cfg config.EngineConfig, logger *zap.Logger) *AlertManager {
	if logger == nil {
		logger = zap.L()
	}
	return &AlertManager{
		feed:     feed,
		ledger:   ledger,
		rerouter: rerouter,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Check scans live reviews against the session's route corridor and
// surfaces at most one unhandled alert. Candidates must be rated below
// the alert threshold, posted after the active route was created, and
// within the corridor radius of a polyline vertex. Returns nil while the
// session is not Active or a prompt is already outstanding.
func (m *AlertManager) Check(s *Session) (*models.AlertPrompt, error) {
	if s.State() != models.SessionActive {
		return nil, nil
	}
	if s.PendingAlert() != nil {
		return nil, nil
	}

	route := s.Route()
	candidates, err := m.feed.LowRatedSince(route.CreatedAt, m.cfg.AlertRatingThreshold)
	if err != nil {
		return nil, eris.Wrap(err, "alert manager: load reviews")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	handled, err := m.ledger.HandledReviewIDs(s.ID())
	if err != nil {
		return nil, eris.Wrap(err, "alert manager: load ledger")
	}

	for _, rv := range candidates {
		if handled[rv.ID] {
			continue
		}
		if !geo.WithinRadius(rv.Location, route.Polyline, m.cfg.AlertRadiusMeters) {
			continue
		}

		prompt := &models.AlertPrompt{
			ReviewID:     rv.ID,
			Location:     rv.Location,
			SafetyRating: rv.SafetyRating,
			Message: fmt.Sprintf(
				"A recent safety review (%.1f/5) was reported near your route. Reroute around it?",
				rv.SafetyRating),
		}
		if !s.SetPendingAlert(prompt) {
			// Another prompt won the slot between checks.
			return nil, nil
		}

		m.logger.Info("safety alert raised",
			zap.String("session_id", s.ID()),
			zap.String("review_id", rv.ID),
			zap.Float64("rating", rv.SafetyRating),
		)
		return prompt, nil
	}

	return nil, nil
}

// Decide records the user's response to the pending alert. Exactly one
// ledger entry is written per review; a duplicate decision is a benign
// no-op reported as already recorded. A reroute decision triggers the
// reroute path immediately, bypassing the deviation threshold.
func (m *AlertManager) Decide(ctx context.Context, s *Session, reviewID, action string) (alreadyRecorded bool, err error) {
	if action != models.AlertActionRerouteAttempted && action != models.AlertActionUserContinued {
		return false, eris.Errorf("unknown alert action %q", action)
	}

	prompt := s.PendingAlert()
	if prompt == nil || prompt.ReviewID != reviewID {
		return false, eris.Wrapf(models.ErrInvalidSessionState,
			"no pending alert for review %s", reviewID)
	}

	entry := models.SafetyAlertHandled{
		SessionID:          s.ID(),
		ReviewID:           reviewID,
		HandledAt:          m.now().UTC(),
		Action:             action,
		ReviewLocation:     prompt.Location,
		ReviewSafetyRating: prompt.SafetyRating,
	}

	inserted, err := m.ledger.MarkHandled(entry)
	if err != nil {
		return false, eris.Wrap(err, "alert manager: append ledger")
	}

	s.ClearPendingAlert()

	if action == models.AlertActionRerouteAttempted {
		if pos := s.LastPosition(); pos != nil {
			m.rerouter.Trigger(ctx, s, pos.Position)
		}
	}

	return !inserted, nil
}
