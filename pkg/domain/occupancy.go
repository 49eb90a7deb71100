package domain

import "fmt"

// Classification buckets a habitat by how full it is.
type Classification string

// Habitat classifications used by reports.
const (
	ClassificationEmpty     Classification = "empty"
	ClassificationAvailable Classification = "available"
	ClassificationNearFull  Classification = "near_full"
	ClassificationFull      Classification = "full"
)

// NearFullThreshold is the occupancy percentage above which a habitat is near full.
const NearFullThreshold = 80.0

// Occupancy captures the derived load of a habitat at one point in time.
type Occupancy struct {
	Occupied int
	Capacity int
}

// IsFull reports whether the habitat is at or over capacity.
func (o Occupancy) IsFull() bool {
	return o.Occupied >= o.Capacity
}

// Overhang reports whether occupancy exceeds capacity, which only happens
// after a confirmed capacity reduction or a species size change.
func (o Occupancy) Overhang() bool {
	return o.Occupied > o.Capacity
}

// Free returns the remaining capacity, never negative.
func (o Occupancy) Free() int {
	if o.Occupied >= o.Capacity {
		return 0
	}
	return o.Capacity - o.Occupied
}

// Percent returns min(100, 100*occupied/capacity), or 100 when capacity is zero.
func (o Occupancy) Percent() float64 {
	if o.Capacity <= 0 {
		return 100
	}
	pct := 100 * float64(o.Occupied) / float64(o.Capacity)
	if pct > 100 {
		return 100
	}
	return pct
}

// Classify maps occupancy to a classification. The checks are ordered:
// empty first, then full, then near full.
func (o Occupancy) Classify() Classification {
	switch {
	case o.Occupied == 0:
		return ClassificationEmpty
	case o.IsFull():
		return ClassificationFull
	case o.Percent() > NearFullThreshold:
		return ClassificationNearFull
	default:
		return ClassificationAvailable
	}
}

func (o Occupancy) String() string {
	return fmt.Sprintf("%d/%d", o.Occupied, o.Capacity)
}

// OccupiedBy sums the footprint of the supplied occupants. Footprints are
// resolved per creature through footprint, which normally looks up the species.
func OccupiedBy(occupants []Creature, footprint func(Creature) int) int {
	total := 0
	for _, c := range occupants {
		total += footprint(c)
	}
	return total
}
