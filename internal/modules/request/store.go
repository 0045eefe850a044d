// README: TransportationRequest store backed by PostgreSQL.
package request

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moveflow/internal/types"
)

var ErrNotFound = errors.New("transportation request not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Request) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO transportation_requests (
			origin_postal, origin_city, dest_postal, dest_city,
			desired_date, estimated_volume, status, match_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		r.OriginPostal, r.OriginCity, r.DestPostal, r.DestCity,
		r.DesiredDate, r.EstimatedVolume,
		string(r.Status), string(r.MatchStatus), r.CreatedAt,
	)
	return row.Scan(&r.ID)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Request, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, origin_postal, origin_city, dest_postal, dest_city,
		       desired_date, estimated_volume, status, match_status, created_at
		FROM transportation_requests
		WHERE id = $1`, int64(id),
	)
	return scanRequest(row)
}

// ListPending returns the pool the candidate generator scans: requests that are
// still pending and not yet matched.
func (s *Store) ListPending(ctx context.Context) ([]Request, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, origin_postal, origin_city, dest_postal, dest_city,
		       desired_date, estimated_volume, status, match_status, created_at
		FROM transportation_requests
		WHERE status = 'pending' AND match_status = 'unmatched'
		ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// SetAccepted marks the request as taken by an accepted match.
func (s *Store) SetAccepted(ctx context.Context, id types.ID) error {
	return s.setStatuses(ctx, id, StatusConfirmed, MatchAccepted)
}

// SetRejected records the operator's rejection; lifecycle status is untouched.
func (s *Store) SetRejected(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE transportation_requests SET match_status = $1 WHERE id = $2`,
		string(MatchRejected), int64(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// Revert restores a request to its pre-accept state; used by the lifecycle
// compensation path when a multi-step accept cannot complete.
func (s *Store) Revert(ctx context.Context, id types.ID) error {
	return s.setStatuses(ctx, id, StatusPending, MatchUnmatched)
}

func (s *Store) setStatuses(ctx context.Context, id types.ID, st Status, ms MatchStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE transportation_requests SET status = $1, match_status = $2 WHERE id = $3`,
		string(st), string(ms), int64(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (*Request, error) {
	var r Request
	var desired *time.Time
	err := row.Scan(
		&r.ID, &r.OriginPostal, &r.OriginCity, &r.DestPostal, &r.DestCity,
		&desired, &r.EstimatedVolume, &r.Status, &r.MatchStatus, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.DesiredDate = desired
	return &r, nil
}
