// README: Match lifecycle: accept, reject, and complete with capacity safety.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moveflow/internal/logger"
	"moveflow/internal/modules/move"
	"moveflow/internal/modules/request"
	"moveflow/internal/types"
)

var (
	ErrNotFound = errors.New("match record not found")
	// ErrAlreadyMatched guards against accepting a request twice.
	ErrAlreadyMatched = errors.New("request already has an accepted match")
	// ErrCapacityExceeded means the request's volume no longer fits the move.
	ErrCapacityExceeded = errors.New("move capacity exceeded")
	// ErrCapacityConflict surfaces after the bounded retry budget is exhausted
	// by concurrent accepts against the same move.
	ErrCapacityConflict = errors.New("concurrent capacity update conflict")
	// ErrPartialApplication is fatal: a multi-step accept could not complete
	// all mutations and the compensation itself failed. Manual reconciliation.
	ErrPartialApplication = errors.New("accept partially applied")
	ErrInvalidState       = errors.New("invalid match state transition")
)

type RequestStore interface {
	Get(ctx context.Context, id types.ID) (*request.Request, error)
	SetAccepted(ctx context.Context, id types.ID) error
	SetRejected(ctx context.Context, id types.ID) error
	Revert(ctx context.Context, id types.ID) error
}

type MoveStore interface {
	Get(ctx context.Context, id types.ID) (*move.Move, error)
	AddClient(ctx context.Context, id types.ID, volume, expectedUsed float64) (bool, error)
}

type RecordStore interface {
	Create(ctx context.Context, r *Record) error
	Get(ctx context.Context, id types.ID) (*Record, error)
	SetType(ctx context.Context, id types.ID, t Type) error
	Delete(ctx context.Context, id types.ID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Event is the JSON payload published on lifecycle transitions.
type Event struct {
	Reference  string    `json:"reference"`
	RequestID  types.ID  `json:"request_id"`
	MoveID     *types.ID `json:"move_id,omitempty"`
	Type       Type      `json:"match_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

const defaultAcceptRetries = 3

type Service struct {
	records  RecordStore
	requests RequestStore
	moves    MoveStore
	events   EventPublisher
	log      *logger.Logger
	retries  int
}

func NewService(records RecordStore, requests RequestStore, moves MoveStore, events EventPublisher, log *logger.Logger, acceptRetries int) *Service {
	if acceptRetries <= 0 {
		acceptRetries = defaultAcceptRetries
	}
	return &Service{
		records:  records,
		requests: requests,
		moves:    moves,
		events:   events,
		log:      log,
		retries:  acceptRetries,
	}
}

type AcceptCommand struct {
	RequestID      types.ID
	MoveID         types.ID
	DistanceKm     float64
	DateDiffDays   int
	CombinedVolume float64
	IsValid        bool
}

type RejectCommand struct {
	RequestID    types.ID
	MoveID       *types.ID
	DistanceKm   float64
	DateDiffDays int
}

// Accept persists the match record, confirms the request, then atomically
// claims the move's capacity. All three mutations apply or none: any failure
// after the record insert triggers compensation, and only a failed compensation
// surfaces ErrPartialApplication (retrying a partial write could double-count
// volume).
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Record, error) {
	req, err := s.requests.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if req.MatchStatus == request.MatchAccepted {
		return nil, ErrAlreadyMatched
	}
	mv, err := s.moves.Get(ctx, cmd.MoveID)
	if err != nil {
		return nil, err
	}

	vol := req.EstimatedVolume
	if vol <= 0 {
		vol = 5
	}

	matchType := TypePartial
	if cmd.IsValid {
		matchType = TypePerfect
	}
	moveID := cmd.MoveID
	rec := &Record{
		RequestID:      cmd.RequestID,
		MoveID:         &moveID,
		Type:           matchType,
		IsValid:        cmd.IsValid,
		VolumeOK:       vol <= mv.RemainingVolume(),
		DistanceKm:     cmd.DistanceKm,
		DateDiffDays:   cmd.DateDiffDays,
		CombinedVolume: cmd.CombinedVolume,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.requests.SetAccepted(ctx, cmd.RequestID); err != nil {
		return nil, s.compensate(ctx, rec, false, err)
	}

	if err := s.claimCapacity(ctx, mv, vol); err != nil {
		return nil, s.compensate(ctx, rec, true, err)
	}

	s.publish(ctx, "match.accepted", rec)
	return rec, nil
}

// claimCapacity retries the conditional increment a bounded number of times;
// each retry re-reads the row so a concurrent accept only costs one attempt.
func (s *Service) claimCapacity(ctx context.Context, mv *move.Move, vol float64) error {
	expected := mv.UsedVolume
	for attempt := 0; attempt < s.retries; attempt++ {
		if vol > mv.Capacity-expected {
			return ErrCapacityExceeded
		}
		ok, err := s.moves.AddClient(ctx, mv.ID, vol, expected)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		fresh, err := s.moves.Get(ctx, mv.ID)
		if err != nil {
			return err
		}
		expected = fresh.UsedVolume
	}
	return ErrCapacityConflict
}

// compensate undoes the request update (when applied) and the record insert.
func (s *Service) compensate(ctx context.Context, rec *Record, requestUpdated bool, cause error) error {
	if requestUpdated {
		if err := s.requests.Revert(ctx, rec.RequestID); err != nil {
			s.logError(ctx, "accept_compensation_failed", "could not revert request after failed accept", err, rec)
			return fmt.Errorf("%w: %s (cause: %s)", ErrPartialApplication, err, cause)
		}
	}
	if err := s.records.Delete(ctx, rec.ID); err != nil {
		s.logError(ctx, "accept_compensation_failed", "could not remove match record after failed accept", err, rec)
		return fmt.Errorf("%w: %s (cause: %s)", ErrPartialApplication, err, cause)
	}
	return cause
}

// Reject persists a rejected record and flags the request; move capacity is
// untouched, so no cross-entity atomicity is needed here.
func (s *Service) Reject(ctx context.Context, cmd RejectCommand) (*Record, error) {
	if _, err := s.requests.Get(ctx, cmd.RequestID); err != nil {
		return nil, err
	}

	rec := &Record{
		RequestID:      cmd.RequestID,
		MoveID:         cmd.MoveID,
		Type:           TypeRejected,
		IsValid:        false,
		VolumeOK:       false,
		DistanceKm:     cmd.DistanceKm,
		DateDiffDays:   cmd.DateDiffDays,
		CombinedVolume: 0,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.requests.SetRejected(ctx, cmd.RequestID); err != nil {
		return nil, err
	}

	s.publish(ctx, "match.rejected", rec)
	return rec, nil
}

// Complete marks an accepted match as done. Idempotent: completing a completed
// record is a no-op. Rejected records have no outgoing transition.
func (s *Service) Complete(ctx context.Context, id types.ID) (*Record, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Type == TypeCompleted {
		return rec, nil
	}
	if rec.Type == TypeRejected {
		return nil, ErrInvalidState
	}
	if err := s.records.SetType(ctx, id, TypeCompleted); err != nil {
		return nil, err
	}
	rec.Type = TypeCompleted

	s.publish(ctx, "match.completed", rec)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Record, error) {
	return s.records.Get(ctx, id)
}

// publish is best-effort: the transition already committed, so a broker outage
// only loses the notification, never the state.
func (s *Service) publish(ctx context.Context, key string, rec *Record) {
	if s.events == nil {
		return
	}
	ev := Event{
		Reference:  rec.Reference(),
		RequestID:  rec.RequestID,
		MoveID:     rec.MoveID,
		Type:       rec.Type,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, key, ev); err != nil {
		s.logError(ctx, "event_publish_failed", "lifecycle event not delivered", err, rec)
	}
}

func (s *Service) logError(ctx context.Context, action, msg string, err error, rec *Record) {
	if s.log == nil {
		return
	}
	s.log.Error(ctx, action, msg, err, map[string]any{"reference": rec.Reference(), "request_id": rec.RequestID})
}
