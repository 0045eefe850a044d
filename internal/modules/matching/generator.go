// README: Candidate generator: pairwise route comparison with concurrent leg lookups.
package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"moveflow/internal/config"
	"moveflow/internal/logger"
	"moveflow/internal/modules/distance"
	"moveflow/internal/modules/request"
)

// DistanceResolver is the one leg-measurement dependency of the generator.
type DistanceResolver interface {
	Resolve(ctx context.Context, origin, destination distance.Location) (distance.Estimate, error)
}

const (
	// defaultVolumeM3 is assumed when a request carries no volume estimate.
	defaultVolumeM3 = 5.0
	// missingDateDiffDays is the placeholder when either desired date is unset.
	missingDateDiffDays = 3
)

type Generator struct {
	distance DistanceResolver
	log      *logger.Logger
	cfg      config.MatchingConfig
}

func NewGenerator(resolver DistanceResolver, log *logger.Logger, cfg config.MatchingConfig) *Generator {
	if cfg.MaxLegKm <= 0 {
		cfg.MaxLegKm = 50
	}
	if cfg.MaxDateDiffDays <= 0 {
		cfg.MaxDateDiffDays = 7
	}
	if cfg.TruckCapacityM3 <= 0 {
		cfg.TruckCapacityM3 = 50
	}
	if cfg.DateWeight <= 0 {
		cfg.DateWeight = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Generator{distance: resolver, log: log, cfg: cfg}
}

// Generate evaluates every unordered pair from the pool and returns candidates
// sorted ascending by score. Ties keep discovery order (pair index order), so
// the output is deterministic regardless of how concurrent lookups complete.
// A failed pair is logged and skipped; only context cancellation aborts the batch.
func (g *Generator) Generate(ctx context.Context, pool []request.Request) ([]Candidate, error) {
	type pairIdx struct{ i, j int }
	var pairs []pairIdx
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			pairs = append(pairs, pairIdx{i, j})
		}
	}

	// Indexed results keep the stable discovery order across the fan-out.
	results := make([][]Candidate, len(pairs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)
	for idx, p := range pairs {
		idx, p := idx, p
		eg.Go(func() error {
			cands, err := g.evaluatePair(egCtx, pool[p.i], pool[p.j])
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				if g.log != nil {
					g.log.Error(egCtx, "pair_evaluation_skipped", "distance lookup failed for pair", err,
						map[string]any{"left_id": pool[p.i].ID, "right_id": pool[p.j].ID})
				}
				return nil
			}
			results[idx] = cands
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []Candidate
	for _, cands := range results {
		out = append(out, cands...)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score < out[b].Score })
	return out, nil
}

// evaluatePair measures the four legs between two requests and emits up to two
// candidates (same-route and complementary-route qualify independently).
func (g *Generator) evaluatePair(ctx context.Context, a, b request.Request) ([]Candidate, error) {
	aOrigin := distance.Location{Postal: a.OriginPostal, City: a.OriginCity}
	aDest := distance.Location{Postal: a.DestPostal, City: a.DestCity}
	bOrigin := distance.Location{Postal: b.OriginPostal, City: b.OriginCity}
	bDest := distance.Location{Postal: b.DestPostal, City: b.DestCity}

	var originLeg, destLeg, crossOut, crossBack distance.Estimate
	eg, legCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) { originLeg, err = g.distance.Resolve(legCtx, aOrigin, bOrigin); return })
	eg.Go(func() (err error) { destLeg, err = g.distance.Resolve(legCtx, aDest, bDest); return })
	eg.Go(func() (err error) { crossOut, err = g.distance.Resolve(legCtx, aOrigin, bDest); return })
	eg.Go(func() (err error) { crossBack, err = g.distance.Resolve(legCtx, aDest, bOrigin); return })
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	dateDiff := dateDiffDays(a.DesiredDate, b.DesiredDate)
	if dateDiff > g.cfg.MaxDateDiffDays {
		return nil, nil
	}

	combined := volumeOrDefault(a.EstimatedVolume) + volumeOrDefault(b.EstimatedVolume)
	feasible := combined <= g.cfg.TruckCapacityM3

	var out []Candidate
	if originLeg.DistanceKm <= g.cfg.MaxLegKm && destLeg.DistanceKm <= g.cfg.MaxLegKm {
		maxLeg := maxKm(originLeg.DistanceKm, destLeg.DistanceKm)
		out = append(out, g.buildCandidate(a, b, TypeSameRoute, maxLeg, dateDiff, combined, feasible,
			fmt.Sprintf("origins %d km apart, destinations %d km apart, dates %d day(s) apart",
				originLeg.DistanceKm, destLeg.DistanceKm, dateDiff)))
	}
	if crossOut.DistanceKm <= g.cfg.MaxLegKm && crossBack.DistanceKm <= g.cfg.MaxLegKm {
		maxLeg := maxKm(crossOut.DistanceKm, crossBack.DistanceKm)
		out = append(out, g.buildCandidate(a, b, TypeComplementaryRoute, maxLeg, dateDiff, combined, feasible,
			fmt.Sprintf("return-trip pairing: cross legs %d km and %d km, dates %d day(s) apart",
				crossOut.DistanceKm, crossBack.DistanceKm, dateDiff)))
	}
	return out, nil
}

func (g *Generator) buildCandidate(a, b request.Request, t MatchType, maxLeg, dateDiff int, combined float64, feasible bool, explanation string) Candidate {
	action := "Contact a carrier for a dedicated route"
	if feasible {
		action = "Group both requests on one truck"
	}
	return Candidate{
		LeftID:          a.ID,
		RightID:         b.ID,
		Type:            t,
		DistanceKm:      maxLeg,
		DateDiffDays:    dateDiff,
		CombinedVolume:  combined,
		Score:           maxLeg + dateDiff*g.cfg.DateWeight,
		IsFeasible:      feasible,
		Explanation:     explanation,
		SuggestedAction: action,
	}
}

// dateDiffDays is the absolute calendar-day difference; a missing date on
// either side yields a placeholder difference instead of a hard failure.
func dateDiffDays(a, b *time.Time) int {
	if a == nil || b == nil {
		return missingDateDiffDays
	}
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

func volumeOrDefault(v float64) float64 {
	if v <= 0 {
		return defaultVolumeM3
	}
	return v
}

func maxKm(a, b int) int {
	if a > b {
		return a
	}
	return b
}
