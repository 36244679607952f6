package navigation

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/saferoute/saferoute-backend-go/internal/config"
	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// SessionStore persists session records.
type SessionStore interface {
	Create(rec models.NavigationSessionRecord) error
	UpdateProgress(sessionID string, stepIndex int) error
	SetState(sessionID string, state models.SessionState) error
}

// Manager owns the live sessions: at most one active session per device.
// Each session has a pump goroutine that applies position updates in
// arrival order and runs the deviation and alert checks after each one.
type Manager struct {
	mu       sync.Mutex
	byID     map[string]*Session
	byDevice map[string]*Session
	streams  map[string]*ChannelStream

	store    SessionStore
	rerouter *Rerouter
	alerts   *AlertManager
	cfg      config.EngineConfig
	logger   *zap.Logger
}

// NewManager creates a session manager.
func NewManager(store SessionStore, rerouter *Rerouter, alerts *AlertManager, cfg config.EngineConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.L()
	}
	return &Manager{
		byID:     make(map[string]*Session),
		byDevice: make(map[string]*Session),
		streams:  make(map[string]*ChannelStream),
		store:    store,
		rerouter: rerouter,
		alerts:   alerts,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start begins navigation for a device on a resolved route. Any previous
// active session for the device is ended first.
func (m *Manager) Start(ctx context.Context, deviceID string, route *models.RoutePlan, stream *ChannelStream) (*Session, error) {
	s, err := NewSession(deviceID, route, stream, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if prev, ok := m.byDevice[deviceID]; ok && !prev.Ended() {
		m.mu.Unlock()
		m.endSession(prev)
		m.mu.Lock()
	}
	m.byID[s.ID()] = s
	m.byDevice[deviceID] = s
	m.streams[s.ID()] = stream
	m.mu.Unlock()

	if err := m.store.Create(s.Record()); err != nil {
		s.End()
		m.remove(s)
		return nil, eris.Wrap(err, "manager: persist session")
	}

	// The pump must outlive the request that started the session, so it
	// runs detached from any request-scoped cancellation. Sessions end
	// only through End or by replacement.
	go m.pump(context.WithoutCancel(ctx), s, stream)

	m.logger.Info("navigation session started",
		zap.String("session_id", s.ID()),
		zap.String("device_id", deviceID),
		zap.String("route_id", route.ID),
	)
	return s, nil
}

// Get returns a live session by ID.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		return nil, eris.Wrapf(models.ErrSessionNotFound, "session %s", sessionID)
	}
	return s, nil
}

// PushPosition offers a position update to a session's stream without
// blocking and returns the last processed step state plus any outstanding
// alert prompt. The pump applies updates in arrival order.
func (m *Manager) PushPosition(sessionID string, u PositionUpdate) (StepState, *models.AlertPrompt, error) {
	m.mu.Lock()
	s, ok := m.byID[sessionID]
	stream := m.streams[sessionID]
	m.mu.Unlock()

	if !ok {
		return StepState{}, nil, eris.Wrapf(models.ErrSessionNotFound, "session %s", sessionID)
	}
	if s.Ended() {
		return StepState{}, nil, eris.Wrap(models.ErrInvalidSessionState, "session has ended")
	}

	if !stream.Push(u) {
		m.logger.Debug("position update dropped",
			zap.String("session_id", sessionID))
	}

	return s.Snapshot(), s.PendingAlert(), nil
}

// Decide forwards an alert decision to the alert manager.
func (m *Manager) Decide(ctx context.Context, sessionID, reviewID, action string) (alreadyRecorded bool, err error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return false, err
	}
	return m.alerts.Decide(ctx, s, reviewID, action)
}

// End stops a session. Idempotent.
func (m *Manager) End(sessionID string) error {
	s, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	m.endSession(s)
	return nil
}

func (m *Manager) endSession(s *Session) {
	s.End()
	if err := m.store.SetState(s.ID(), models.SessionEnded); err != nil {
		m.logger.Error("failed to persist session end",
			zap.String("session_id", s.ID()),
			zap.Error(err),
		)
	}
	m.remove(s)

	m.logger.Info("navigation session ended", zap.String("session_id", s.ID()))
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, s.ID())
	delete(m.streams, s.ID())
	if cur, ok := m.byDevice[s.DeviceID()]; ok && cur == s {
		delete(m.byDevice, s.DeviceID())
	}
}

// pump applies updates from the stream in arrival order, then runs the
// deviation and alert checks. It exits when the stream is unsubscribed.
func (m *Manager) pump(ctx context.Context, s *Session, stream *ChannelStream) {
	lastPersisted := 0

	for {
		select {
		case <-stream.Done():
			return
		case u := <-stream.Updates():
			state, err := s.ApplyPosition(u)
			if err != nil {
				// Session ended between delivery and processing.
				return
			}

			if state.StepIndex != lastPersisted {
				lastPersisted = state.StepIndex
				if err := m.store.UpdateProgress(s.ID(), state.StepIndex); err != nil {
					m.logger.Warn("failed to persist progress",
						zap.String("session_id", s.ID()),
						zap.Error(err),
					)
				}
			}

			m.rerouter.Check(ctx, s, u.Position)

			if _, err := m.alerts.Check(s); err != nil {
				m.logger.Warn("alert check failed",
					zap.String("session_id", s.ID()),
					zap.Error(err),
				)
			}
		}
	}
}
