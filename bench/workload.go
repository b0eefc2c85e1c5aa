package bench

import (
	"github.com/benz9527/xfleet/lib/fixtures"
	"github.com/benz9527/xfleet/lib/fleet"
	"github.com/benz9527/xfleet/lib/infra"
)

// workload is one measured repetition. Everything except run is prepared
// ahead, so the clock only sees the fleet operations.
type workload struct {
	op    Op
	size  int
	fleet fleet.Fleet
	ships []fleet.Ship
	found int
}

// Seeds are derived per trial and repetition, preparation order does not
// change the generated ships.
func workloadSeed(seed uint64, trial, repeat int) uint64 {
	return seed + uint64(trial)*1_000_003 + uint64(repeat)
}

func newWorkload(op Op, size int, seed uint64) *workload {
	prng := fixtures.NewRand(seed)
	w := &workload{op: op, size: size}
	switch op {
	case OpInsert:
		w.fleet = fleet.NewFleet()
		w.ships = fixtures.RandomShips(prng, size, 0)
	case OpRemove:
		w.ships = fixtures.RandomShips(prng, 2*size, 0)
		w.fleet = fixtures.Build(w.ships)
		w.ships = w.ships[:size]
	case OpFind:
		w.ships = fixtures.RandomShips(prng, size, 0)
		w.fleet = fixtures.Build(w.ships)
	default:
	}
	return w
}

func (w *workload) run() {
	switch w.op {
	case OpInsert:
		for _, ship := range w.ships {
			w.fleet.Insert(ship)
		}
	case OpRemove:
		for _, ship := range w.ships {
			w.fleet.Remove(ship.ID)
		}
	case OpFind:
		found := 0
		for _, ship := range w.ships {
			if w.fleet.Find(ship.ID) {
				found++
			}
		}
		w.found = found
	default:
	}
}

// verify runs after the clock stopped.
func (w *workload) verify() error {
	switch w.op {
	case OpInsert, OpRemove:
		if w.fleet.Len() != int64(w.size) {
			return infra.NewErrorStack(w.op.String() + " left an unexpected fleet size")
		}
	case OpFind:
		if w.found != w.size {
			return infra.NewErrorStack("find missed inserted ships")
		}
	default:
		return infra.NewErrorStack("unknown fleet op")
	}
	return nil
}
