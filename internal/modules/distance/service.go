// README: DistanceResolver with provider lookup and a deterministic offline fallback.
package distance

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"moveflow/internal/logger"
)

// Provider is the external driving-distance lookup (Google Directions in prod).
type Provider interface {
	Estimate(ctx context.Context, origin, destination string) (km float64, duration time.Duration, err error)
}

// Resolver converts two postal locations into a distance/duration pair. It never
// fails on provider outage: identical codes resolve to zero and any provider
// error degrades to a department-prefix fallback, so matching stays available
// when the mapping dependency is down.
type Resolver struct {
	provider Provider
	cache    Cache
	log      *logger.Logger
}

// NewResolver builds a resolver. provider and cache may both be nil; a nil
// provider means every lookup uses the fallback.
func NewResolver(provider Provider, cache Cache, log *logger.Logger) *Resolver {
	return &Resolver{provider: provider, cache: cache, log: log}
}

// fallback distances in km by department-prefix difference.
const (
	fallbackSameDept = 25
	fallbackAdjacent = 50
	fallbackTwoApart = 80
	fallbackFar      = 120
)

// Resolve returns a whole-km / whole-minute estimate between two locations.
// The only returned error is context cancellation.
func (r *Resolver) Resolve(ctx context.Context, origin, destination Location) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	o := NormalizePostal(origin.Postal)
	d := NormalizePostal(destination.Postal)

	if o == d {
		return Estimate{DistanceKm: 0, DurationMin: 0}, nil
	}

	if r.cache != nil {
		if e, ok, err := r.cache.Get(ctx, o, d); err == nil && ok {
			return e, nil
		}
	}

	if r.provider != nil {
		km, dur, err := r.provider.Estimate(ctx, providerQuery(o, origin.City), providerQuery(d, destination.City))
		if err == nil {
			e := Estimate{
				DistanceKm:  int(math.Round(km)),
				DurationMin: int(math.Round(dur.Minutes())),
			}
			if r.cache != nil {
				if err := r.cache.Set(ctx, o, d, e); err != nil && r.log != nil {
					r.log.Debug(ctx, "distance_cache_set_failed", "could not cache estimate", map[string]any{"origin": o, "destination": d})
				}
			}
			return e, nil
		}
		if err := ctx.Err(); err != nil {
			return Estimate{}, err
		}
		if r.log != nil {
			r.log.Debug(ctx, "distance_provider_fallback", "provider lookup failed, using offline estimate", map[string]any{"origin": o, "destination": d})
		}
	}

	km := fallbackKm(o, d)
	// No road data offline; assume roughly 60 km/h so callers still get a duration.
	return Estimate{DistanceKm: km, DurationMin: km}, nil
}

// NormalizePostal strips every non-digit character. A French postal code must
// reduce to exactly five digits; anything else is returned trimmed verbatim and
// downstream confidence drops accordingly.
func NormalizePostal(code string) string {
	var b strings.Builder
	for _, c := range code {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 5 {
		return b.String()
	}
	return strings.TrimSpace(code)
}

// fallbackKm is a pure function of the two department prefixes (first two
// digits): same department 25, adjacent 50, two apart 80, otherwise 120.
func fallbackKm(origin, destination string) int {
	op, ok1 := departmentPrefix(origin)
	dp, ok2 := departmentPrefix(destination)
	if !ok1 || !ok2 {
		return fallbackFar
	}
	diff := op - dp
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return fallbackSameDept
	case 1:
		return fallbackAdjacent
	case 2:
		return fallbackTwoApart
	default:
		return fallbackFar
	}
}

func departmentPrefix(code string) (int, bool) {
	if len(code) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(code[:2])
	if err != nil {
		return 0, false
	}
	return n, true
}

func providerQuery(postal, city string) string {
	if city != "" {
		return postal + " " + city
	}
	return postal
}
