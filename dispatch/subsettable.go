package dispatch

import (
	"log"
	"math/bits"
	"sort"

	"github.com/devskill-org/microgrid-sim/errs"
)

// combustionSubsetLogThreshold is the count of combustion assets (M)
// at or above which subset-table construction logs progress, per the
// 2^M pattern space becoming large enough to notice.
const combustionSubsetLogThreshold = 14

// combustionSubsetMaxAssets refuses construction above this many
// combustion assets; 2^30 patterns is already absurd to enumerate.
const combustionSubsetMaxAssets = 30

// pattern records one on/off combination of combustion assets: which
// units run, their combined capacity, and how many are running.
type pattern struct {
	mask         uint64
	capacity     float64
	runningCount int
}

// SubsetTable is the pre-computed map from a required capacity
// allocation to the combustion on/off pattern that meets it with the
// fewest running units. Built once at init from the fleet's combustion
// capacities.
type SubsetTable struct {
	capacities []float64
	keys       []float64
	byKey      map[float64]pattern
}

// NewSubsetTable enumerates all 2^M on/off patterns across the given
// combustion capacities, keeping for each distinct total capacity the
// pattern with the fewest running units (ties broken by the first one
// found, i.e. the lowest mask).
func NewSubsetTable(capacities []float64, logger *log.Logger) (*SubsetTable, error) {
	m := len(capacities)
	if m > combustionSubsetMaxAssets {
		return nil, &errs.InvalidConfigError{
			Field:   "combustion asset count",
			Message: "exceeds the maximum of 30 combustion assets for subset-table enumeration",
		}
	}

	total := uint64(1) << uint(m)
	byKey := make(map[float64]pattern)

	logEvery := uint64(1) << 20
	shouldLog := m >= combustionSubsetLogThreshold && logger != nil

	for mask := uint64(0); mask < total; mask++ {
		if shouldLog && mask%logEvery == 0 {
			logger.Printf("combustion subset table: %d/%d patterns enumerated", mask, total)
		}

		var capacity float64
		for j, c := range capacities {
			if mask&(1<<uint(j)) != 0 {
				capacity += c
			}
		}
		count := bits.OnesCount64(mask)

		existing, ok := byKey[capacity]
		if !ok || count < existing.runningCount {
			byKey[capacity] = pattern{mask: mask, capacity: capacity, runningCount: count}
		}
	}

	keys := make([]float64, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	if shouldLog {
		logger.Printf("combustion subset table: %d distinct capacity keys", len(keys))
	}

	return &SubsetTable{capacities: capacities, keys: keys, byKey: byKey}, nil
}

// Lookup finds the smallest key >= required; if none exists (required
// exceeds the fleet's total capacity) it returns the largest key.
func (t *SubsetTable) Lookup(required float64) (key float64, runningMask uint64) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i] >= required })
	if i == len(t.keys) {
		i = len(t.keys) - 1
	}
	key = t.keys[i]
	return key, t.byKey[key].mask
}

// IsRunning reports whether asset index j is running in mask.
func IsRunning(mask uint64, j int) bool {
	return mask&(1<<uint(j)) != 0
}
