// README: Typed reference codes (CLI/TRJ/MTH) and entity resolution.
package reference

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"moveflow/internal/modules/match"
	"moveflow/internal/modules/move"
	"moveflow/internal/modules/request"
	"moveflow/internal/types"
)

var (
	// ErrUnrecognizedReference is the validation failure for an unknown prefix
	// or a reference that does not have the PREFIX-NNNNNN shape.
	ErrUnrecognizedReference = errors.New("unrecognized reference code")
	// ErrNotFound covers both an unparsable numeric portion and an absent entity.
	ErrNotFound = errors.New("referenced entity not found")
	// ErrIncompleteData is the lookup failure for a match whose linked entities
	// are missing or carry no route endpoints; partial geometry is never returned.
	ErrIncompleteData = errors.New("referenced entity has incomplete route data")
)

type Kind string

const (
	KindClient Kind = "client"
	KindMove   Kind = "move"
	KindMatch  Kind = "match"
)

var pattern = regexp.MustCompile(`^([A-Z]{3})-(\d{6})$`)

var prefixes = map[string]Kind{
	"CLI": KindClient,
	"TRJ": KindMove,
	"MTH": KindMatch,
}

// Format renders the display code for a kind, zero-padded to six digits.
func Format(kind Kind, id types.ID) string {
	prefix := ""
	switch kind {
	case KindClient:
		prefix = "CLI"
	case KindMove:
		prefix = "TRJ"
	case KindMatch:
		prefix = "MTH"
	}
	return fmt.Sprintf("%s-%06d", prefix, int64(id))
}

// Parse validates and splits a reference code. Input is case-insensitive and
// normalized to uppercase; leading zeros in the numeric portion are display-only.
func Parse(code string) (Kind, types.ID, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	m := pattern.FindStringSubmatch(normalized)
	if m == nil {
		// Distinguish a known prefix with a bad numeric tail from garbage.
		if i := strings.IndexByte(normalized, '-'); i == 3 {
			if _, ok := prefixes[normalized[:3]]; ok {
				return "", 0, fmt.Errorf("%w: bad numeric portion in %q", ErrNotFound, code)
			}
		}
		return "", 0, fmt.Errorf("%w: %q", ErrUnrecognizedReference, code)
	}
	kind, ok := prefixes[m[1]]
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrUnrecognizedReference, code)
	}
	id, err := types.ParseID(m[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad numeric portion in %q", ErrNotFound, code)
	}
	return kind, id, nil
}

type RequestGetter interface {
	Get(ctx context.Context, id types.ID) (*request.Request, error)
}

type MoveGetter interface {
	Get(ctx context.Context, id types.ID) (*move.Move, error)
}

type MatchGetter interface {
	Get(ctx context.Context, id types.ID) (*match.Record, error)
}

// RouteEndpoints is one entity's origin/destination pair.
type RouteEndpoints struct {
	OriginPostal string `json:"origin_postal"`
	OriginCity   string `json:"origin_city,omitempty"`
	DestPostal   string `json:"dest_postal"`
	DestCity     string `json:"dest_city,omitempty"`
}

// RelatedRoutes carries both linked entities' endpoints for dual-route map
// rendering. Pure projection, not a persisted entity.
type RelatedRoutes struct {
	Client RouteEndpoints `json:"client"`
	Move   RouteEndpoints `json:"move"`
}

// Resolved is the typed result of a reference lookup.
type Resolved struct {
	Kind          Kind             `json:"kind"`
	Reference     string           `json:"reference"`
	Request       *request.Request `json:"request,omitempty"`
	Move          *move.Move       `json:"move,omitempty"`
	Match         *match.Record    `json:"match,omitempty"`
	RelatedRoutes *RelatedRoutes   `json:"related_routes,omitempty"`
}

type Resolver struct {
	requests RequestGetter
	moves    MoveGetter
	matches  MatchGetter
}

func NewResolver(requests RequestGetter, moves MoveGetter, matches MatchGetter) *Resolver {
	return &Resolver{requests: requests, moves: moves, matches: matches}
}

// Resolve parses the code and loads the underlying entity. MTH references
// additionally load both linked entities (in parallel once the record is
// known) and project their route endpoints; missing geometry on either side
// fails the whole resolution rather than returning a partial route.
func (r *Resolver) Resolve(ctx context.Context, code string) (*Resolved, error) {
	kind, id, err := Parse(code)
	if err != nil {
		return nil, err
	}

	out := &Resolved{Kind: kind, Reference: Format(kind, id)}
	switch kind {
	case KindClient:
		req, err := r.requests.Get(ctx, id)
		if errors.Is(err, request.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, out.Reference)
		}
		if err != nil {
			return nil, err
		}
		out.Request = req
	case KindMove:
		mv, err := r.moves.Get(ctx, id)
		if errors.Is(err, move.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, out.Reference)
		}
		if err != nil {
			return nil, err
		}
		out.Move = mv
	case KindMatch:
		if err := r.resolveMatch(ctx, id, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Resolver) resolveMatch(ctx context.Context, id types.ID, out *Resolved) error {
	rec, err := r.matches.Get(ctx, id)
	if errors.Is(err, match.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, out.Reference)
	}
	if err != nil {
		return err
	}
	if rec.MoveID == nil {
		return fmt.Errorf("%w: %s has no linked move", ErrIncompleteData, out.Reference)
	}

	var req *request.Request
	var mv *move.Move
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		req, err = r.requests.Get(egCtx, rec.RequestID)
		if errors.Is(err, request.ErrNotFound) {
			return fmt.Errorf("%w: linked client request missing for %s", ErrIncompleteData, out.Reference)
		}
		return err
	})
	eg.Go(func() error {
		var err error
		mv, err = r.moves.Get(egCtx, *rec.MoveID)
		if errors.Is(err, move.ErrNotFound) {
			return fmt.Errorf("%w: linked move missing for %s", ErrIncompleteData, out.Reference)
		}
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	if req.OriginPostal == "" || req.DestPostal == "" || mv.OriginPostal == "" || mv.DestPostal == "" {
		return fmt.Errorf("%w: %s", ErrIncompleteData, out.Reference)
	}

	out.Match = rec
	out.Request = req
	out.Move = mv
	out.RelatedRoutes = &RelatedRoutes{
		Client: RouteEndpoints{
			OriginPostal: req.OriginPostal, OriginCity: req.OriginCity,
			DestPostal: req.DestPostal, DestCity: req.DestCity,
		},
		Move: RouteEndpoints{
			OriginPostal: mv.OriginPostal, OriginCity: mv.OriginCity,
			DestPostal: mv.DestPostal, DestCity: mv.DestCity,
		},
	}
	return nil
}
