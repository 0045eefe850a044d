// README: MatchRecord aggregate: the persisted outcome of an operator decision.
package match

import (
	"fmt"
	"time"

	"moveflow/internal/types"
)

type Type string

const (
	// TypePerfect is an accepted match whose candidate was fully valid.
	TypePerfect Type = "perfect"
	// TypePartial is an accepted match with degraded confidence.
	TypePartial   Type = "partial"
	TypeRejected  Type = "rejected"
	TypeCompleted Type = "completed"
)

// Record is created by the lifecycle on accept/reject and never deleted by
// core policy; the only delete is the compensation of a failed accept.
type Record struct {
	ID             types.ID
	RequestID      types.ID
	MoveID         *types.ID
	Type           Type
	IsValid        bool
	VolumeOK       bool
	DistanceKm     float64
	DateDiffDays   int
	CombinedVolume float64
	CreatedAt      time.Time
}

// Reference is the display code, zero-padded to six digits.
func (r *Record) Reference() string {
	return fmt.Sprintf("MTH-%06d", int64(r.ID))
}

// Terminal transitions: nothing leaves rejected, and completing a completed
// record is a no-op.
func (t Type) IsTerminal() bool {
	return t == TypeRejected || t == TypeCompleted
}
