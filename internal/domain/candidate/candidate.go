// Package candidate reconstructs ZZ candidates from four leptons.
//
// The search is a brute force over the 24 orderings of exactly four leptons.
// Larger multiplicities need a perfect matching search and are not handled.
package candidate

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/cutflow/internal/domain/physics"
)

// ErrNeedFourLeptons is returned when the input does not hold exactly four leptons.
var ErrNeedFourLeptons = errors.New("candidate: exactly four leptons required")

// Lepton is what the finder needs from a lepton.
type Lepton interface {
	physics.Particle
	Charge() int32
	PdgID() int32
}

// ZZ is the best pairing: Leptons[0:2] form the first pair, Leptons[2:4] the second.
type ZZ[L Lepton] struct {
	Leptons [4]L
	MassZ1  float64
	MassZ2  float64
	Score   float64 // sum of both pair distances to the Z mass
}

// Mass4l is the invariant mass of all four leptons.
func (c ZZ[L]) Mass4l() float64 {
	return physics.InvariantMass(c.Leptons[0], c.Leptons[1], c.Leptons[2], c.Leptons[3])
}

// permutations of four indices in lexicographic order.
var permutations = func() [][4]int {
	out := make([][4]int, 0, 24)
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			if b == a {
				continue
			}
			for c := 0; c < 4; c++ {
				if c == a || c == b {
					continue
				}
				d := 6 - a - b - c
				out = append(out, [4]int{a, b, c, d})
			}
		}
	}
	return out
}()

// ValidPair reports an opposite-charge, same-flavor pair.
func ValidPair[L Lepton](a, b L) bool {
	return a.Charge()*b.Charge() < 0 && abs(a.PdgID()) == abs(b.PdgID())
}

// FindZZ returns the ordering of leptons whose two pairs lie closest to the
// Z mass, summed over both pairs. The first ordering reaching the minimum
// wins. ok is false when no ordering yields two valid pairs.
func FindZZ[L Lepton](leptons []L) (best ZZ[L], ok bool, err error) {
	if len(leptons) != 4 {
		return best, false, fmt.Errorf("%w: got %d", ErrNeedFourLeptons, len(leptons))
	}
	best.Score = math.Inf(1)
	for _, p := range permutations {
		l0, l1, l2, l3 := leptons[p[0]], leptons[p[1]], leptons[p[2]], leptons[p[3]]
		if !ValidPair(l0, l1) || !ValidPair(l2, l3) {
			continue
		}
		m1 := physics.InvariantMass(l0, l1)
		m2 := physics.InvariantMass(l2, l3)
		score := math.Abs(m1-physics.ZMass) + math.Abs(m2-physics.ZMass)
		if !ok || score < best.Score {
			best = ZZ[L]{Leptons: [4]L{l0, l1, l2, l3}, MassZ1: m1, MassZ2: m2, Score: score}
			ok = true
		}
	}
	return best, ok, nil
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
