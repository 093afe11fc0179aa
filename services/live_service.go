package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/bracketops/live-console/metrics"
	"github.com/bracketops/live-console/models"
	"github.com/bracketops/live-console/repositories"
)

// LiveService is the concurrency-safe aggregation service for live match
// state. Applies for the same match id are serialized; different match ids
// proceed independently; reads always return a complete deep copy.
type LiveService interface {
	// ApplyEvent folds one event into the match's snapshot at an
	// apply-time timestamp. Unknown matches are created implicitly;
	// validation errors leave state untouched.
	ApplyEvent(ctx context.Context, matchID string, evt models.LiveEvent) (*models.EventAck, error)

	// GetSnapshot returns a deep copy of the current snapshot, lazily
	// restoring from the store after a restart. Unknown match ids yield
	// an empty snapshot, never an error.
	GetSnapshot(ctx context.Context, matchID string) *models.MatchSnapshot

	// Analytics recomputes the derived view from a snapshot copy.
	Analytics(snap *models.MatchSnapshot) models.LiveAnalytics

	// MatchInfo fetches the external collaborator's match card.
	MatchInfo(ctx context.Context, matchID string) (*models.MatchInfo, error)

	// EvictInactive flushes and drops matches idle longer than olderThan,
	// returning how many were evicted. The persisted document remains, so
	// a later read restores the snapshot.
	EvictInactive(ctx context.Context, olderThan time.Duration) int

	// FlushAll persists every resident snapshot (shutdown path).
	FlushAll(ctx context.Context) error
}

// LiveServiceConfig carries the tunable policy knobs; zero values fall back
// to defaults.
type LiveServiceConfig struct {
	AliveWeight    float64       // win-probability weight per surviving player
	PersistTimeout time.Duration // bound on each best-effort snapshot write
}

const defaultPersistTimeout = 3 * time.Second

type liveMatch struct {
	mu        sync.Mutex
	snap      *models.MatchSnapshot
	lastEvent time.Time
	// evicted marks an entry that has been dropped from the match map.
	// A writer that fetched the entry before eviction must not mutate
	// this orphan: the update would be invisible to later reads.
	evicted bool
}

type liveService struct {
	mu      sync.RWMutex
	matches map[string]*liveMatch

	store     repositories.SnapshotStore
	matchInfo repositories.MatchInfoRepository
	logger    *slog.Logger

	aliveWeight    float64
	persistTimeout time.Duration

	restore singleflight.Group

	// now is swappable in tests to get a deterministic clock.
	now func() time.Time
}

func NewLiveService(
	store repositories.SnapshotStore,
	matchInfo repositories.MatchInfoRepository,
	logger *slog.Logger,
	cfg LiveServiceConfig,
) LiveService {
	if cfg.AliveWeight == 0 {
		cfg.AliveWeight = DefaultAliveWeight
	}
	if cfg.PersistTimeout == 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}
	return &liveService{
		matches:        make(map[string]*liveMatch),
		store:          store,
		matchInfo:      matchInfo,
		logger:         logger,
		aliveWeight:    cfg.AliveWeight,
		persistTimeout: cfg.PersistTimeout,
		now:            time.Now,
	}
}

func (s *liveService) ApplyEvent(ctx context.Context, matchID string, evt models.LiveEvent) (*models.EventAck, error) {
	var m *liveMatch
	for {
		m = s.match(ctx, matchID, true)
		m.mu.Lock()
		if !m.evicted {
			break
		}
		// Lost a race with eviction: the entry is no longer in the map,
		// so fetch a fresh one instead of mutating an orphan.
		m.mu.Unlock()
	}

	next := m.snap.Clone()
	ts := s.now()
	if err := ApplyLiveEvent(next, evt, ts); err != nil {
		m.mu.Unlock()
		metrics.EventsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}
	// Atomic pointer swap under the match lock: readers either see the
	// previous snapshot or the fully applied one, never a partial state.
	m.snap = next
	m.lastEvent = ts
	persistCopy := next.Clone()
	m.mu.Unlock()

	metrics.EventsApplied.WithLabelValues(string(evt.Type)).Inc()

	s.persist(matchID, persistCopy)

	return &models.EventAck{
		EventID:   uuid.NewString(),
		MatchID:   matchID,
		Type:      evt.Type,
		AppliedAt: ts,
	}, nil
}

func (s *liveService) GetSnapshot(ctx context.Context, matchID string) *models.MatchSnapshot {
	m := s.match(ctx, matchID, false)
	if m == nil {
		return &models.MatchSnapshot{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}

func (s *liveService) Analytics(snap *models.MatchSnapshot) models.LiveAnalytics {
	return models.LiveAnalytics{
		WinProbability: WinProbability(snap, s.aliveWeight),
		MVPPrediction:  PredictMVP(snap),
	}
}

func (s *liveService) MatchInfo(ctx context.Context, matchID string) (*models.MatchInfo, error) {
	if s.matchInfo == nil {
		return nil, ErrMatchInfoUnavailable
	}
	info, err := s.matchInfo.GetByMatchID(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchInfoUnavailable
		}
		// Anything else is a collaborator outage, not a missing match;
		// callers degrade either way but should log this one.
		return nil, fmt.Errorf("failed to fetch match info for %s: %w", matchID, err)
	}
	return info, nil
}

func (s *liveService) EvictInactive(ctx context.Context, olderThan time.Duration) int {
	cutoff := s.now().Add(-olderThan)

	type flush struct {
		id   string
		snap *models.MatchSnapshot
	}

	var flushes []flush
	s.mu.Lock()
	for id, m := range s.matches {
		m.mu.Lock()
		// The idle check, the clone and the map delete happen in one
		// critical section per match: a concurrent apply either already
		// advanced lastEvent (the match is skipped) or observes the
		// evicted flag and re-fetches a fresh entry.
		if m.lastEvent.IsZero() || !m.lastEvent.Before(cutoff) {
			m.mu.Unlock()
			continue
		}
		m.evicted = true
		flushes = append(flushes, flush{id: id, snap: m.snap.Clone()})
		delete(s.matches, id)
		m.mu.Unlock()
	}
	metrics.MatchesResident.Set(float64(len(s.matches)))
	s.mu.Unlock()

	// Flushing happens outside every lock so a slow store write never
	// stalls applies or reads, for these match ids or any other.
	for _, f := range flushes {
		s.persist(f.id, f.snap)
	}

	if len(flushes) > 0 && s.logger != nil {
		s.logger.Info("evicted inactive live matches",
			slog.Int("count", len(flushes)),
			slog.Duration("older_than", olderThan))
	}
	return len(flushes)
}

func (s *liveService) FlushAll(ctx context.Context) error {
	s.mu.RLock()
	copies := make(map[string]*models.MatchSnapshot, len(s.matches))
	for id, m := range s.matches {
		m.mu.Lock()
		copies[id] = m.snap.Clone()
		m.mu.Unlock()
	}
	s.mu.RUnlock()

	var firstErr error
	for id, snap := range copies {
		if err := s.save(ctx, id, snap); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// match returns the resident state for a match id. On a miss it first tries
// to restore the persisted snapshot (deduplicated via singleflight so a
// burst of polls after a restart issues one store read), then, when
// createIfMissing is set, installs an empty snapshot.
func (s *liveService) match(ctx context.Context, matchID string, createIfMissing bool) *liveMatch {
	s.mu.RLock()
	m, ok := s.matches[matchID]
	s.mu.RUnlock()
	if ok {
		return m
	}

	var restored *models.MatchSnapshot
	if s.store != nil {
		v, _, _ := s.restore.Do(matchID, func() (interface{}, error) {
			snap, found, err := s.store.Load(ctx, matchID)
			if err != nil {
				// A failing store never blocks serving from memory.
				if s.logger != nil {
					s.logger.Error("failed to restore snapshot",
						slog.String("match_id", matchID),
						slog.Any("error", err))
				}
				return (*models.MatchSnapshot)(nil), nil
			}
			if !found {
				return (*models.MatchSnapshot)(nil), nil
			}
			return snap, nil
		})
		restored, _ = v.(*models.MatchSnapshot)
	}

	if restored == nil && !createIfMissing {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.matches[matchID]; ok {
		return m
	}
	m = &liveMatch{snap: restored, lastEvent: s.now()}
	if m.snap == nil {
		m.snap = &models.MatchSnapshot{}
	}
	s.matches[matchID] = m
	metrics.MatchesResident.Set(float64(len(s.matches)))
	return m
}

// persist hands the snapshot to the store with a bounded timeout. Failures
// are logged and counted out-of-band: the mutation already succeeded and
// in-memory state stays authoritative.
func (s *liveService) persist(matchID string, snap *models.MatchSnapshot) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	if err := s.save(ctx, matchID, snap); err != nil {
		metrics.PersistFailures.Inc()
		if s.logger != nil {
			s.logger.Error("best-effort snapshot persist failed",
				slog.String("match_id", matchID),
				slog.Any("error", err))
		}
	}
}

func (s *liveService) save(ctx context.Context, matchID string, snap *models.MatchSnapshot) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, matchID, snap); err != nil {
		return fmt.Errorf("%w: match %s: %v", ErrPersistenceFailure, matchID, err)
	}
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownEventKind):
		return "unknown_event_kind"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	default:
		return "other"
	}
}
