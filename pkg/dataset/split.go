package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// boundaryEpsilon absorbs binary rounding in c*n so cuts such as 0.29 over
// 100 rows land on 29 rather than 28.
const boundaryEpsilon = 1e-9

// SplitOptions controls row ordering before partitioning.
// When Shuffle is set, rows are permuted with a PCG source seeded from Seed,
// so the same seed always yields the same partitions.
type SplitOptions struct {
	Shuffle bool  `json:"shuffle" toml:"shuffle"`
	Seed    int64 `json:"seed" toml:"seed"`
}

// Split partitions the dataset at the given cut points. Cut points are fractions
// of the row count, strictly increasing and within (0,1); N cuts produce N+1
// partitions. The boundary for cut c over n rows is floor(c*n), taken with a
// small tolerance for binary rounding, so [0.7, 0.9] over 1000 rows yields
// 700/200/100 and 0.29 over 100 rows yields 29/71.
func Split(d *Dataset, cuts []float64, opts SplitOptions) ([]*Dataset, error) {
	if err := ValidateCuts(cuts); err != nil {
		return nil, err
	}

	n := d.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	if opts.Shuffle {
		seed := uint64(opts.Seed)
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	parts := make([]*Dataset, 0, len(cuts)+1)
	start := 0
	for _, c := range cuts {
		end := boundary(c, n)
		parts = append(parts, d.Subset(order[start:end]))
		start = end
	}
	parts = append(parts, d.Subset(order[start:]))

	return parts, nil
}

// ValidateCuts checks that cut points are non-empty, within (0,1) and strictly increasing.
func ValidateCuts(cuts []float64) error {
	if len(cuts) == 0 {
		return fmt.Errorf("%w: at least one cut point required", ErrInvalidSplit)
	}
	for i, c := range cuts {
		if !(c > 0 && c < 1) {
			return fmt.Errorf("%w: cut %v outside (0,1)", ErrInvalidSplit, c)
		}
		if i > 0 && c <= cuts[i-1] {
			return fmt.Errorf("%w: cut %v does not follow %v", ErrInvalidSplit, c, cuts[i-1])
		}
	}
	return nil
}

func boundary(c float64, n int) int {
	return min(int(math.Floor(c*float64(n)+boundaryEpsilon)), n)
}
