// README: Move aggregate: a carrier's scheduled trip with finite volume capacity.
package move

import (
	"time"

	"moveflow/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
)

// DefaultCapacityM3 is the implicit truck volume when a carrier declares none.
const DefaultCapacityM3 = 50.0

// Move carries the only shared mutable resource in the matching core:
// UsedVolume / NumberOfClients, which must always equal the sum over accepted
// matches against this move. Mutations go through the conditional update in the
// store so concurrent accepts serialize instead of losing an increment.
type Move struct {
	ID              types.ID
	OriginPostal    string
	OriginCity      string
	DestPostal      string
	DestCity        string
	DepartureDate   *time.Time
	Capacity        float64
	UsedVolume      float64
	NumberOfClients int
	Status          Status
	CreatedAt       time.Time
}

// RemainingVolume is the free truck volume.
func (m *Move) RemainingVolume() float64 {
	return m.Capacity - m.UsedVolume
}
