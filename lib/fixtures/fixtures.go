// Package fixtures generates ships and fleets for tests, demos and timing
// runs. Every generator is deterministic for a given PRNG.
package fixtures

import (
	randv2 "math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"github.com/benz9527/xfleet/lib/fleet"
)

const idSpan = fleet.MaxID - fleet.MinID + 1

func NewRand(seed uint64) *randv2.Rand {
	return randv2.New(randv2.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomIDs draws n distinct valid ids, n is capped at the id range.
func RandomIDs(prng *randv2.Rand, n int) []int {
	if n <= 0 {
		return []int{}
	}
	if n >= idSpan/2 {
		// Dense requests, shuffle the whole range instead of rejecting.
		all := lo.RangeFrom(fleet.MinID, idSpan)
		prng.Shuffle(len(all), func(i, j int) {
			all[i], all[j] = all[j], all[i]
		})
		return all[:min(n, idSpan)]
	}
	seen := make(map[int]struct{}, n)
	ids := make([]int, 0, n)
	for len(ids) < n {
		id := prng.IntN(idSpan) + fleet.MinID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func RandomType(prng *randv2.Rand) fleet.ShipType {
	types := fleet.ShipTypes()
	return types[prng.IntN(len(types))]
}

// RandomShips draws n ships with distinct ids. Each one is LOST with
// probability lostRatio.
func RandomShips(prng *randv2.Rand, n int, lostRatio float64) []fleet.Ship {
	return lo.Map(RandomIDs(prng, n), func(id int, _ int) fleet.Ship {
		state := fleet.Alive
		if prng.Float64() < lostRatio {
			state = fleet.Lost
		}
		return fleet.Ship{ID: id, Type: RandomType(prng), State: state}
	})
}

func Build(ships []fleet.Ship) fleet.Fleet {
	f := fleet.NewFleet()
	for _, ship := range ships {
		f.Insert(ship)
	}
	return f
}

func IDs(ships []fleet.Ship) []int {
	return lo.Map(ships, func(ship fleet.Ship, _ int) int {
		return ship.ID
	})
}

// LostIDs lists the LOST ships of f in ascending id order.
func LostIDs(f fleet.Fleet) []int {
	return lo.FilterMap(slices.Collect(f.All()), func(ship fleet.Ship, _ int) (int, bool) {
		return ship.ID, ship.State == fleet.Lost
	})
}

// CountByType tallies ships per type, types without ships are omitted.
func CountByType(f fleet.Fleet) map[fleet.ShipType]int {
	groups := lo.GroupBy(slices.Collect(f.All()), func(ship fleet.Ship) fleet.ShipType {
		return ship.Type
	})
	return lo.MapValues(groups, func(ships []fleet.Ship, _ fleet.ShipType) int {
		return len(ships)
	})
}
