// README: MatchRecord store backed by PostgreSQL.
package match

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moveflow/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Record) error {
	var moveID *int64
	if r.MoveID != nil {
		v := int64(*r.MoveID)
		moveID = &v
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO match_records (
			request_id, move_id, match_type, is_valid, volume_ok,
			distance_km, date_diff_days, combined_volume, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		int64(r.RequestID), moveID, string(r.Type), r.IsValid, r.VolumeOK,
		r.DistanceKm, r.DateDiffDays, r.CombinedVolume, r.CreatedAt,
	)
	return row.Scan(&r.ID)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, request_id, move_id, match_type, is_valid, volume_ok,
		       distance_km, date_diff_days, combined_volume, created_at
		FROM match_records
		WHERE id = $1`, int64(id),
	)

	var r Record
	var moveID *int64
	err := row.Scan(
		&r.ID, &r.RequestID, &moveID, &r.Type, &r.IsValid, &r.VolumeOK,
		&r.DistanceKm, &r.DateDiffDays, &r.CombinedVolume, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if moveID != nil {
		v := types.ID(*moveID)
		r.MoveID = &v
	}
	return &r, nil
}

func (s *Store) SetType(ctx context.Context, id types.ID, t Type) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE match_records SET match_type = $1 WHERE id = $2`,
		string(t), int64(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// Delete exists for the accept compensation path only; retention is external policy.
func (s *Store) Delete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM match_records WHERE id = $1`, int64(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
