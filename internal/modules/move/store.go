// README: Move store backed by PostgreSQL with a conditional capacity update.
package move

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"moveflow/internal/types"
)

var ErrNotFound = errors.New("move not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, m *Move) error {
	if m.Capacity <= 0 {
		m.Capacity = DefaultCapacityM3
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO moves (
			origin_postal, origin_city, dest_postal, dest_city,
			departure_date, capacity, used_volume, number_of_clients, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		m.OriginPostal, m.OriginCity, m.DestPostal, m.DestCity,
		m.DepartureDate, m.Capacity, m.UsedVolume, m.NumberOfClients,
		string(m.Status), m.CreatedAt,
	)
	return row.Scan(&m.ID)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Move, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, origin_postal, origin_city, dest_postal, dest_city,
		       departure_date, capacity, used_volume, number_of_clients, status, created_at
		FROM moves
		WHERE id = $1`, int64(id),
	)

	var m Move
	var departure *time.Time
	err := row.Scan(
		&m.ID, &m.OriginPostal, &m.OriginCity, &m.DestPostal, &m.DestCity,
		&departure, &m.Capacity, &m.UsedVolume, &m.NumberOfClients, &m.Status, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.DepartureDate = departure
	return &m, nil
}

// AddClient increments used_volume and number_of_clients only when used_volume
// still equals the caller's snapshot and the capacity cap holds. A false return
// with nil error means the guard failed: either a concurrent accept moved the
// snapshot, or the volume no longer fits. The caller re-reads and decides.
func (s *Store) AddClient(ctx context.Context, id types.ID, volume, expectedUsed float64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE moves
		SET used_volume = used_volume + $1,
		    number_of_clients = number_of_clients + 1
		WHERE id = $2
		  AND used_volume = $3
		  AND used_volume + $1 <= capacity`,
		volume, int64(id), expectedUsed,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveClient reverts an AddClient; compensation path only.
func (s *Store) RemoveClient(ctx context.Context, id types.ID, volume float64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE moves
		SET used_volume = GREATEST(used_volume - $1, 0),
		    number_of_clients = GREATEST(number_of_clients - 1, 0)
		WHERE id = $2`,
		volume, int64(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
