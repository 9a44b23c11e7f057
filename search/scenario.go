// Package search runs simulated Grover-search trials. A scenario pairs a
// search space with a marked set; runners sample measurement outcomes
// according to the analytic success probability from the amplitude package.
package search

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/qsimlab/groverlab/amplitude"
	"github.com/qsimlab/groverlab/numutil"
)

// A Scenario is an immutable search configuration: a space of SpaceSize
// items of which the marked indices are the targets. Construct scenarios
// with NewScenario or NewWeightedScenario so that the invariants hold.
type Scenario struct {
	spaceSize int
	marked    []int
	markedSet map[int]struct{}

	// markedCDF holds the cumulative marked-item distribution for
	// weighted scenarios; nil means successful trials pick uniformly.
	markedCDF []float64
}

// NewScenario validates and builds a scenario. The marked indices must be
// distinct, in [0, spaceSize), and cover neither none nor all of the space.
func NewScenario(spaceSize int, marked []int) (Scenario, error) {
	if spaceSize <= 0 {
		return Scenario{}, fmt.Errorf(
			"%w: space size %d must be positive",
			amplitude.ErrInvalidConfiguration, spaceSize)
	}

	if len(marked) == 0 {
		return Scenario{}, fmt.Errorf(
			"%w: marked set is empty",
			amplitude.ErrInvalidConfiguration)
	}

	if len(marked) >= spaceSize {
		return Scenario{}, fmt.Errorf(
			"%w: %d marked items cover the whole space of %d",
			amplitude.ErrInvalidConfiguration, len(marked), spaceSize)
	}

	set := make(map[int]struct{}, len(marked))
	sorted := make([]int, 0, len(marked))

	for _, index := range marked {
		if index < 0 || index >= spaceSize {
			return Scenario{}, fmt.Errorf(
				"%w: marked index %d outside [0, %d)",
				amplitude.ErrInvalidConfiguration, index, spaceSize)
		}

		if _, dup := set[index]; dup {
			return Scenario{}, fmt.Errorf(
				"%w: duplicate marked index %d",
				amplitude.ErrInvalidConfiguration, index)
		}

		set[index] = struct{}{}
		sorted = append(sorted, index)
	}

	sort.Ints(sorted)

	return Scenario{
		spaceSize: spaceSize,
		marked:    sorted,
		markedSet: set,
	}, nil
}

// probTolerance bounds the rounding error accepted when a normalized
// weight vector is checked against the probability-vector invariants.
const probTolerance = 1e-9

// NewWeightedScenario builds a scenario whose successful trials pick
// marked items according to the given weights instead of uniformly. The
// weights are matched positionally to the marked indices and normalized
// internally; they must be finite, non-negative, and not all zero.
func NewWeightedScenario(
	spaceSize int,
	marked []int,
	weights []float64,
) (Scenario, error) {
	if len(weights) != len(marked) {
		return Scenario{}, fmt.Errorf(
			"%w: %d weights for %d marked indices",
			amplitude.ErrInvalidConfiguration, len(weights), len(marked))
	}

	s, err := NewScenario(spaceSize, marked)
	if err != nil {
		return Scenario{}, err
	}

	probs, err := numutil.Normalize(weights)
	if err != nil {
		return Scenario{}, fmt.Errorf("%w: marked weights: %v",
			amplitude.ErrInvalidConfiguration, err)
	}

	// Normalize accepts infinite weights; the distribution check rejects
	// the NaN entries they produce.
	if !numutil.IsProbabilityVector(probs, probTolerance) {
		return Scenario{}, fmt.Errorf(
			"%w: marked weights do not normalize to a distribution",
			amplitude.ErrInvalidConfiguration)
	}

	byIndex := make(map[int]float64, len(marked))
	for i, index := range marked {
		byIndex[index] = probs[i]
	}

	ordered := make([]float64, len(s.marked))
	for i, index := range s.marked {
		ordered[i] = byIndex[index]
	}

	s.markedCDF = numutil.Cumulative(ordered)

	return s, nil
}

// SpaceSize returns the number of items in the search space.
func (s Scenario) SpaceSize() int {
	return s.spaceSize
}

// Marked returns the marked indices in ascending order.
func (s Scenario) Marked() []int {
	out := make([]int, len(s.marked))
	copy(out, s.marked)

	return out
}

// MarkedCount returns the number of marked items.
func (s Scenario) MarkedCount() int {
	return len(s.marked)
}

// MarkedFraction returns |marked| / spaceSize, strictly inside (0, 1) for
// any scenario built by NewScenario.
func (s Scenario) MarkedFraction() float64 {
	return float64(len(s.marked)) / float64(s.spaceSize)
}

// IsMarked reports whether an index belongs to the marked set.
func (s Scenario) IsMarked(index int) bool {
	_, ok := s.markedSet[index]
	return ok
}

// sampleMarked draws a marked item: uniformly for plain scenarios, by
// inverse-CDF threshold lookup for weighted ones.
func (s Scenario) sampleMarked(rng *rand.Rand) int {
	if s.markedCDF == nil {
		return s.marked[rng.Intn(len(s.marked))]
	}

	i := sort.SearchFloat64s(s.markedCDF, rng.Float64())
	if i >= len(s.marked) {
		i = len(s.marked) - 1
	}

	return s.marked[i]
}

// sampleUnmarked rejection-samples the complement. The marked fraction is
// strictly below 1, so the expected number of draws is 1/(1-f).
func (s Scenario) sampleUnmarked(rng *rand.Rand) int {
	for {
		index := rng.Intn(s.spaceSize)
		if !s.IsMarked(index) {
			return index
		}
	}
}
