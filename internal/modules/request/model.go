// README: TransportationRequest aggregate and status definitions.
package request

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

type MatchStatus string

const (
	MatchUnmatched MatchStatus = "unmatched"
	MatchAccepted  MatchStatus = "accepted"
	MatchRejected  MatchStatus = "rejected"
)

// Request is a single client's desired move between two locations on a date,
// with a volume estimate. EstimatedVolume <= 0 means "unspecified"; consumers
// substitute a default at evaluation time without mutating the record.
type Request struct {
	ID              types.ID
	OriginPostal    string
	OriginCity      string
	DestPostal      string
	DestCity        string
	DesiredDate     *time.Time
	EstimatedVolume float64
	Status          Status
	MatchStatus     MatchStatus
	CreatedAt       time.Time
}
