// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"math"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// Default scoring weights. Rating dominates, distance matters, and
// corroboration across providers adds a bounded bonus (R3.1-R3.3).
const (
	ratingWeight        = 0.5
	proximityWeight     = 0.3
	corroborationWeight = 0.2

	// proximityHalfDistance is the distance in meters at which the
	// proximity component falls to one half.
	proximityHalfDistance = 1000.0
)

// DefaultScoring returns the standard scoring function: a weighted
// combination of the representative's rating (missing ratings count as
// cfg.NeutralRating), an inverse-distance falloff from the query
// reference point, and a corroboration bonus that grows with the number
// of agreeing providers with diminishing returns past three
// (1 provider adds nothing, 2 half the bonus, 3 three quarters, ...).
func DefaultScoring(cfg types.MergeConfig) ScoringFn {
	return func(c Candidate) float64 {
		rating := cfg.NeutralRating
		if c.Representative.Rating != nil {
			rating = *c.Representative.Rating
		}

		proximity := proximityHalfDistance / (proximityHalfDistance + c.DistanceMeters)

		corroboration := 1 - math.Pow(0.5, float64(len(c.Providers)-1))

		return ratingWeight*rating + proximityWeight*proximity + corroborationWeight*corroboration
	}
}
