package matching

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"moveflow/internal/config"
	"moveflow/internal/modules/distance"
	"moveflow/internal/modules/request"
	"moveflow/internal/types"
)

// offlineResolver runs the real resolver on the deterministic fallback only,
// which keeps every leg distance a pure function of the postal codes.
func offlineResolver() DistanceResolver {
	return distance.NewResolver(nil, nil, nil)
}

func newTestGenerator() *Generator {
	return NewGenerator(offlineResolver(), nil, config.MatchingConfig{})
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func req(id int64, originPostal, destPostal string, vol float64, desired *time.Time) request.Request {
	return request.Request{
		ID:              types.ID(id),
		OriginPostal:    originPostal,
		DestPostal:      destPostal,
		EstimatedVolume: vol,
		DesiredDate:     desired,
		Status:          request.StatusPending,
		MatchStatus:     request.MatchUnmatched,
	}
}

func TestGenerate_SameRouteScenario(t *testing.T) {
	// Paris→Lyon pair, both legs inside one department, dates 2 days apart.
	pool := []request.Request{
		req(1, "75001", "69001", 10, date(2026, 9, 1)),
		req(2, "75002", "69002", 8, date(2026, 9, 3)),
	}

	got, err := newTestGenerator().Generate(context.Background(), pool)
	assert.NoError(t, err)
	assert.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, TypeSameRoute, c.Type)
	assert.Equal(t, 25, c.DistanceKm)
	assert.Equal(t, 2, c.DateDiffDays)
	assert.Equal(t, 18.0, c.CombinedVolume)
	assert.True(t, c.IsFeasible)
	assert.Equal(t, 31, c.Score) // 25 + 2*3
	assert.Equal(t, "Group both requests on one truck", c.SuggestedAction)
}

func TestGenerate_RejectsWideDateGap(t *testing.T) {
	pool := []request.Request{
		req(1, "75001", "69001", 10, date(2026, 9, 1)),
		req(2, "75002", "69002", 8, date(2026, 9, 12)), // 11 days apart
	}

	got, err := newTestGenerator().Generate(context.Background(), pool)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerate_NeverEmitsDateDiffOverLimit(t *testing.T) {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	var pool []request.Request
	for i := 0; i < 6; i++ {
		d := base.AddDate(0, 0, i*2)
		pool = append(pool, req(int64(i+1), "75001", "69001", 5, &d))
	}

	got, err := newTestGenerator().Generate(context.Background(), pool)
	assert.NoError(t, err)
	for _, c := range got {
		assert.LessOrEqual(t, c.DateDiffDays, 7)
	}
}

func TestGenerate_MissingDateUsesPlaceholder(t *testing.T) {
	pool := []request.Request{
		req(1, "75001", "69001", 10, nil),
		req(2, "75002", "69002", 8, date(2026, 9, 3)),
	}

	got, err := newTestGenerator().Generate(context.Background(), pool)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, got[0].DateDiffDays)
	assert.Equal(t, 25+3*3, got[0].Score)
}

func TestGenerate_DefaultVolumeAndFeasibility(t *testing.T) {
	// Unspecified volumes default to 5 m³ each.
	pool := []request.Request{
		req(1, "75001", "69001", 0, date(2026, 9, 1)),
		req(2, "75002", "69002", 0, date(2026, 9, 1)),
	}
	got, err := newTestGenerator().Generate(context.Background(), pool)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 10.0, got[0].CombinedVolume)
	assert.True(t, got[0].IsFeasible)

	// Over the single-truck heuristic.
	pool = []request.Request{
		req(1, "75001", "69001", 30, date(2026, 9, 1)),
		req(2, "75002", "69002", 25, date(2026, 9, 1)),
	}
	got, err = newTestGenerator().Generate(context.Background(), pool)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 55.0, got[0].CombinedVolume)
	assert.False(t, got[0].IsFeasible)
	assert.Equal(t, "Contact a carrier for a dedicated route", got[0].SuggestedAction)

	for _, c := range got {
		assert.Equal(t, c.CombinedVolume <= 50, c.IsFeasible)
	}
}

func TestGenerate_PairMayQualifyForBothTypes(t *testing.T) {
	// Everything in department 75: all four legs are 25 km.
	pool := []request.Request{
		req(1, "75001", "75010", 5, date(2026, 9, 1)),
		req(2, "75003", "75011", 5, date(2026, 9, 1)),
	}

	got, err := newTestGenerator().Generate(context.Background(), pool)
	assert.NoError(t, err)
	assert.Len(t, got, 2)

	kinds := map[MatchType]bool{}
	for _, c := range got {
		kinds[c.Type] = true
	}
	assert.True(t, kinds[TypeSameRoute])
	assert.True(t, kinds[TypeComplementaryRoute])
}

func TestGenerate_SortedForAnyInputOrder(t *testing.T) {
	pool := []request.Request{
		req(1, "75001", "69001", 5, date(2026, 9, 1)),
		req(2, "75002", "69002", 5, date(2026, 9, 3)), // diff 2 with #1
		req(3, "75003", "69003", 5, date(2026, 9, 6)), // diff 5 with #1, 3 with #2
		req(4, "76000", "69004", 5, date(2026, 9, 1)), // adjacent-dept origin legs
	}

	g := newTestGenerator()
	first, err := g.Generate(context.Background(), pool)
	assert.NoError(t, err)

	reversed := make([]request.Request, len(pool))
	for i, r := range pool {
		reversed[len(pool)-1-i] = r
	}
	second, err := g.Generate(context.Background(), reversed)
	assert.NoError(t, err)

	assert.True(t, sort.SliceIsSorted(first, func(a, b int) bool { return first[a].Score < first[b].Score }))
	assert.True(t, sort.SliceIsSorted(second, func(a, b int) bool { return second[a].Score < second[b].Score }))
	assert.Equal(t, len(first), len(second))

	// Same multiset of scores regardless of input order.
	scores := func(cs []Candidate) []int {
		out := make([]int, len(cs))
		for i, c := range cs {
			out[i] = c.Score
		}
		sort.Ints(out)
		return out
	}
	assert.Equal(t, scores(first), scores(second))
}

// flakyResolver fails every lookup touching a marked postal code.
type flakyResolver struct {
	inner      DistanceResolver
	poisonCode string
}

func (f *flakyResolver) Resolve(ctx context.Context, o, d distance.Location) (distance.Estimate, error) {
	if o.Postal == f.poisonCode || d.Postal == f.poisonCode {
		return distance.Estimate{}, errors.New("lookup exploded")
	}
	return f.inner.Resolve(ctx, o, d)
}

func TestGenerate_FailedPairSkippedNotFatal(t *testing.T) {
	pool := []request.Request{
		req(1, "75001", "69001", 5, date(2026, 9, 1)),
		req(2, "75002", "69002", 5, date(2026, 9, 1)),
		req(3, "99999", "69003", 5, date(2026, 9, 1)), // every pair with this one fails
	}

	g := NewGenerator(&flakyResolver{inner: offlineResolver(), poisonCode: "99999"}, nil, config.MatchingConfig{})
	got, err := g.Generate(context.Background(), pool)
	assert.NoError(t, err)
	assert.Len(t, got, 1) // only the 1–2 pair survives
	assert.Equal(t, types.ID(1), got[0].LeftID)
	assert.Equal(t, types.ID(2), got[0].RightID)
}

func TestGenerate_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := []request.Request{
		req(1, "75001", "69001", 5, date(2026, 9, 1)),
		req(2, "75002", "69002", 5, date(2026, 9, 1)),
	}
	_, err := newTestGenerator().Generate(ctx, pool)
	assert.Error(t, err)
}
