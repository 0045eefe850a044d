// README: Match candidate value objects.
package matching

import "moveflow/internal/types"

type MatchType string

const (
	// TypeSameRoute pairs two requests travelling the same corridor.
	TypeSameRoute MatchType = "same_route"
	// TypeComplementaryRoute pairs a leg with its return (backhaul grouping).
	TypeComplementaryRoute MatchType = "complementary_route"
)

// Candidate is an unpersisted, scored suggestion that two requests be grouped.
// Lower score is better. The same pair may appear twice when it qualifies for
// both match types; each candidate is independently actionable.
type Candidate struct {
	LeftID          types.ID  `json:"left_id"`
	RightID         types.ID  `json:"right_id"`
	Type            MatchType `json:"match_type"`
	DistanceKm      int       `json:"distance_km"`
	DateDiffDays    int       `json:"date_diff_days"`
	CombinedVolume  float64   `json:"combined_volume"`
	Score           int       `json:"match_score"`
	IsFeasible      bool      `json:"is_feasible"`
	Explanation     string    `json:"explanation"`
	SuggestedAction string    `json:"suggested_action"`
}
