package fleet

import (
	"bytes"
	randv2 "math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type checkData struct {
	color RBColor
	id    int
}

func requireFleetColors(t *testing.T, f Fleet, expected []checkData) {
	t.Helper()
	require.Equal(t, int64(len(expected)), f.Len())
	f.Foreach(func(idx int64, color RBColor, ship Ship) bool {
		require.Equal(t, expected[idx].color, color, "idx %d", idx)
		require.Equal(t, expected[idx].id, ship.ID, "idx %d", idx)
		return true
	})
	require.NoError(t, Validate(f))
}

func TestNilNode(t *testing.T) {
	var nilNode RBNode = nil
	require.True(t, nilNode == nil)

	f := NewFleet()
	require.Nil(t, f.Root())
	f.Insert(Ship{ID: 12345})
	require.NotNil(t, f.Root())
	require.Nil(t, f.Root().Left())
	require.Nil(t, f.Root().Right())
}

func TestRbtreeInsertAndRemove_Colors(t *testing.T) {
	f := NewFleet()

	f.Insert(Ship{ID: 62000})
	requireFleetColors(t, f, []checkData{{Black, 62000}})

	f.Insert(Ship{ID: 57000})
	requireFleetColors(t, f, []checkData{{Red, 57000}, {Black, 62000}})

	f.Insert(Ship{ID: 13000})
	requireFleetColors(t, f, []checkData{{Red, 13000}, {Black, 57000}, {Red, 62000}})

	f.Insert(Ship{ID: 45000})
	requireFleetColors(t, f, []checkData{
		{Black, 13000},
		{Red, 45000},
		{Black, 57000},
		{Black, 62000},
	})

	f.Insert(Ship{ID: 34000})
	requireFleetColors(t, f, []checkData{
		{Red, 13000},
		{Black, 34000},
		{Red, 45000},
		{Black, 57000},
		{Black, 62000},
	})

	// remove

	f.Remove(34000)
	requireFleetColors(t, f, []checkData{
		{Black, 13000},
		{Red, 45000},
		{Black, 57000},
		{Black, 62000},
	})

	f.Remove(57000)
	requireFleetColors(t, f, []checkData{
		{Black, 13000},
		{Black, 45000},
		{Black, 62000},
	})
	require.Equal(t, 45000, f.Root().ID())

	f.Remove(62000)
	requireFleetColors(t, f, []checkData{{Red, 13000}, {Black, 45000}})

	f.Remove(13000)
	requireFleetColors(t, f, []checkData{{Black, 45000}})

	f.Remove(45000)
	require.Equal(t, int64(0), f.Len())
	require.Nil(t, f.Root())
}

func TestFleetScenario(t *testing.T) {
	f := NewFleet()
	for _, id := range []int{50000, 30000, 70000, 20000, 40000} {
		f.Insert(Ship{ID: id, Type: Cargo, State: Alive})
	}
	require.NoError(t, Validate(f))
	require.Equal(t, 50000, f.Root().ID())
	require.Equal(t, Black, f.Root().Color())
	require.True(t, f.Find(20000))
	require.False(t, f.Find(99999))

	buf := &bytes.Buffer{}
	require.NoError(t, f.Dump(buf))
	require.Equal(t, "(((20000:RED)30000:BLACK(40000:RED))50000:BLACK(70000:BLACK))", buf.String())

	f.Remove(50000)
	require.NoError(t, Validate(f))
	require.Equal(t, 40000, f.Root().ID())
	require.False(t, f.Find(50000))
	require.Equal(t, int64(4), f.Len())

	buf.Reset()
	require.NoError(t, f.Dump(buf))
	require.Equal(t, "(((20000:RED)30000:BLACK)40000:BLACK(70000:BLACK))", buf.String())
}

func TestFleetRejectsInvalidInsert(t *testing.T) {
	f := NewFleet()
	f.Insert(Ship{ID: 9999})
	require.Equal(t, int64(0), f.Len())
	require.False(t, f.Find(9999))

	for _, id := range []int{50000, 30000, 70000, 20000, 40000} {
		f.Insert(Ship{ID: id})
	}
	snapshot := Clone(f)
	require.True(t, Equal(f, snapshot))

	f.Insert(Ship{ID: 9999})
	f.Insert(Ship{ID: MaxID + 1})
	f.Insert(Ship{ID: -1})
	f.Insert(Ship{ID: 30000, Type: RoboCarrier, State: Lost})
	require.True(t, Equal(f, snapshot))
	ship, ok := f.Get(30000)
	require.True(t, ok)
	require.Equal(t, Ship{ID: 30000}, ship)

	f.Insert(Ship{ID: MinID})
	f.Insert(Ship{ID: MaxID})
	require.True(t, f.Find(MinID))
	require.True(t, f.Find(MaxID))
	require.Equal(t, int64(7), f.Len())
	require.NoError(t, Validate(f))
}

func TestFleetAbsentIsNoop(t *testing.T) {
	f := NewFleet()
	f.Remove(50000)
	require.False(t, f.SetState(50000, Lost))
	_, ok := f.State(50000)
	require.False(t, ok)
	require.Equal(t, 0, f.RemoveLost())
	require.Equal(t, int64(0), f.Len())

	for _, id := range []int{50000, 30000, 70000, 20000, 40000} {
		f.Insert(Ship{ID: id})
	}
	snapshot := Clone(f)
	for _, id := range []int{9999, 10000, 45000, 99999, 100000} {
		f.Remove(id)
		require.False(t, f.Find(id))
		require.False(t, f.SetState(id, Lost))
		require.True(t, Equal(f, snapshot), "id %d", id)
	}
	require.Equal(t, 0, f.RemoveLost())
	require.True(t, Equal(f, snapshot))
	require.Equal(t, 0, f.RemoveWhere(nil))
	require.True(t, Equal(f, snapshot))
}

func TestFleetSetState(t *testing.T) {
	f := NewFleet()
	for _, id := range []int{50000, 30000, 70000, 20000, 40000} {
		f.Insert(Ship{ID: id, Type: Telescope})
	}
	require.True(t, f.SetState(40000, Lost))
	state, ok := f.State(40000)
	require.True(t, ok)
	require.Equal(t, Lost, state)

	ship, ok := f.Get(40000)
	require.True(t, ok)
	require.Equal(t, Ship{ID: 40000, Type: Telescope, State: Lost}, ship)

	require.True(t, f.SetState(40000, Alive))
	state, _ = f.State(40000)
	require.Equal(t, Alive, state)
	require.NoError(t, Validate(f))
}

func TestFleetRemoveLost(t *testing.T) {
	prng := randv2.New(randv2.NewPCG(341, 2022))
	ids := randomIDs(prng, 500)

	testcases := []struct {
		name string
		lost func(idx int) bool
	}{
		{"half lost", func(idx int) bool { return idx%2 == 0 }},
		{"all lost", func(int) bool { return true }},
		{"none lost", func(int) bool { return false }},
		{"first lost", func(idx int) bool { return idx == 0 }},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFleet()
			for _, id := range ids {
				f.Insert(Ship{ID: id})
			}
			expectedLost := 0
			for idx, id := range ids {
				if tc.lost(idx) {
					require.True(t, f.SetState(id, Lost))
					expectedLost++
				}
			}

			require.Equal(t, expectedLost, f.RemoveLost())
			require.NoError(t, Validate(f))
			require.Equal(t, int64(len(ids)-expectedLost), f.Len())
			for idx, id := range ids {
				require.Equal(t, !tc.lost(idx), f.Find(id), "id %d", id)
			}
			for ship := range f.All() {
				require.Equal(t, Alive, ship.State)
			}
		})
	}
}

func TestFleetRemoveWhere(t *testing.T) {
	f := NewFleet()
	for id := MinID; id < MinID+200; id++ {
		f.Insert(Ship{ID: id, Type: ShipTypes()[id%len(ShipTypes())]})
	}
	removed := f.RemoveWhere(func(ship Ship) bool {
		return ship.Type == FuelCarrier
	})
	require.Equal(t, 40, removed)
	require.NoError(t, Validate(f))
	for ship := range f.All() {
		require.NotEqual(t, FuelCarrier, ship.Type)
	}
}

func TestFleetAllAscending(t *testing.T) {
	prng := randv2.New(randv2.NewPCG(7, 11))
	ids := randomIDs(prng, 1000)

	f := NewFleet()
	for _, id := range ids {
		f.Insert(Ship{ID: id})
	}
	got := make([]int, 0, len(ids))
	for ship := range f.All() {
		got = append(got, ship.ID)
	}
	expected := slices.Clone(ids)
	sort.Ints(expected)
	require.Equal(t, expected, got)

	// restartable and stoppable
	n := 0
	for range f.All() {
		n++
		if n == 10 {
			break
		}
	}
	require.Equal(t, 10, n)
	again := make([]int, 0, len(ids))
	for ship := range f.All() {
		again = append(again, ship.ID)
	}
	require.Equal(t, expected, again)

	f.Foreach(func(idx int64, color RBColor, ship Ship) bool {
		require.Equal(t, expected[idx], ship.ID)
		return idx < 5
	})
}

func TestFleetDumpAndList(t *testing.T) {
	f := NewFleet()
	buf := &bytes.Buffer{}
	require.NoError(t, f.Dump(buf))
	require.Empty(t, buf.String())

	f.Insert(Ship{ID: 20000, Type: Communicator, State: Alive})
	f.Insert(Ship{ID: 10000, Type: Cargo, State: Lost})
	f.Insert(Ship{ID: 30000, Type: RoboCarrier, State: Alive})

	require.NoError(t, f.Dump(buf))
	require.Equal(t, "((10000:RED)20000:BLACK(30000:RED))", buf.String())

	buf.Reset()
	require.NoError(t, f.List(buf))
	require.Equal(t, "10000:LOST:CARGO\n20000:ALIVE:COMMUNICATOR\n30000:ALIVE:ROBOCARRIER\n", buf.String())
}

func TestFleetClear(t *testing.T) {
	f := NewFleet()
	for id := MinID; id < MinID+100; id++ {
		f.Insert(Ship{ID: id})
	}
	root := f.Root()
	f.Clear()
	require.Equal(t, int64(0), f.Len())
	require.Nil(t, f.Root())
	require.False(t, f.Find(MinID))
	require.Nil(t, root.Left())
	require.Nil(t, root.Right())

	f.Insert(Ship{ID: MinID})
	require.Equal(t, int64(1), f.Len())
	require.NoError(t, Validate(f))
	f.Clear()
	f.Clear()
	require.Equal(t, int64(0), f.Len())
}

func TestRbtreePrimitivesAssertion(t *testing.T) {
	require.Panics(t, func() { rotateLeft(&rbNode{}) })
	require.Panics(t, func() { rotateRight(&rbNode{}) })
	require.Panics(t, func() { rotateToward(&rbNode{}, Root) })
	require.Panics(t, func() { recolorDown(&rbNode{left: &rbNode{}}) })
	require.Panics(t, func() { replaceWithPred(&rbNode{}) })

	x := &rbNode{ship: Ship{ID: 20000}, color: Black}
	x.left = &rbNode{ship: Ship{ID: 10000}, color: Red}
	x.right = &rbNode{ship: Ship{ID: 30000}, color: Red}
	recolorDown(x)
	require.Equal(t, Red, x.color)
	require.Equal(t, Black, x.left.color)
	require.Equal(t, Black, x.right.color)

	y := rotateLeft(x)
	require.Equal(t, 30000, y.ship.ID)
	require.Equal(t, x, y.left)
	require.Equal(t, 10000, y.left.left.ship.ID)
	z := rotateRight(y)
	require.Equal(t, x, z)
	require.Equal(t, y, z.right)
}

func TestValidateDetectsViolations(t *testing.T) {
	f := NewFleet()
	for _, id := range []int{50000, 30000, 70000} {
		f.Insert(Ship{ID: id})
	}
	require.NoError(t, Validate(f))

	tree := f.(*rbTree)
	tree.root.left.left = &rbNode{ship: Ship{ID: 20000}, color: Red}
	tree.count++
	require.ErrorIs(t, RedViolationValidate(f), ErrRedViolation)
	require.ErrorIs(t, Validate(f), ErrRedViolation)

	tree.root.left.left.color = Black
	require.ErrorIs(t, BlackViolationValidate(f), ErrBlackViolation)

	tree.root.left.left.color = DoubleBlack
	require.ErrorIs(t, Validate(f), ErrDoubleBlackAtRest)

	tree.root.left.left = &rbNode{ship: Ship{ID: 60000}, color: Red}
	tree.root.left.color = Black
	tree.root.right.color = Black
	require.ErrorIs(t, OrderViolationValidate(f), ErrOrderViolation)

	tree.root.left.left = &rbNode{ship: Ship{ID: 9999}, color: Red}
	require.ErrorIs(t, OrderViolationValidate(f), ErrIDOutOfRange)

	tree.root.left.left = nil
	tree.root.color = Red
	err := Validate(f)
	require.ErrorIs(t, err, ErrRootNotBlack)
	require.ErrorIs(t, err, ErrLenMismatch)
}

// The deletion rebalance has many textbook variants, so every insertion
// order and every removal order of a small id set is checked exhaustively.
func TestFleetExhaustivePermutations(t *testing.T) {
	ids := []int{10000, 20000, 30000, 40000, 50000}
	for _, insertOrder := range permutations(ids) {
		base := NewFleet()
		for _, id := range insertOrder {
			base.Insert(Ship{ID: id})
			require.NoError(t, Validate(base), "insert order %v", insertOrder)
		}
		for _, removeOrder := range permutations(ids) {
			f := Clone(base)
			for i, id := range removeOrder {
				f.Remove(id)
				require.NoError(t, Validate(f), "insert %v remove %v", insertOrder, removeOrder)
				require.False(t, f.Find(id))
				require.Equal(t, int64(len(ids)-i-1), f.Len())
			}
		}
	}

	ids = []int{11000, 12000, 13000, 14000, 15000, 16000, 17000}
	for _, insertOrder := range permutations(ids) {
		base := NewFleet()
		for _, id := range insertOrder {
			base.Insert(Ship{ID: id})
		}
		require.NoError(t, Validate(base))
		for _, id := range ids {
			f := Clone(base)
			f.Remove(id)
			require.NoError(t, Validate(f), "insert %v remove %d", insertOrder, id)
			for _, other := range ids {
				require.Equal(t, other != id, f.Find(other))
			}
		}
	}
}

func TestFleetRandomOperations(t *testing.T) {
	prng := randv2.New(randv2.NewPCG(uint64(MinID), uint64(MaxID)))
	f := NewFleet()
	ref := make(map[int]ShipState, 512)
	// A narrow id window keeps hits on both present and absent ids frequent.
	randID := func() int {
		return MinID + prng.IntN(600) - 10
	}

	for i := 0; i < 4000; i++ {
		before := f.Len()
		switch op := prng.IntN(10); {
		case op < 5:
			id := randID()
			_, present := ref[id]
			f.Insert(Ship{ID: id, Type: ShipType(prng.IntN(int(_shipTypeMax)))})
			if !present && ValidID(id) {
				ref[id] = Alive
				require.Equal(t, before+1, f.Len())
			} else {
				require.Equal(t, before, f.Len())
			}
		case op < 8:
			id := randID()
			_, present := ref[id]
			f.Remove(id)
			if present {
				delete(ref, id)
				require.Equal(t, before-1, f.Len())
			} else {
				require.Equal(t, before, f.Len())
			}
		case op < 9:
			id := randID()
			_, present := ref[id]
			require.Equal(t, present, f.SetState(id, Lost))
			if present {
				ref[id] = Lost
			}
		default:
			if prng.IntN(4) != 0 {
				continue
			}
			lost := 0
			for id, state := range ref {
				if state == Lost {
					delete(ref, id)
					lost++
				}
			}
			require.Equal(t, lost, f.RemoveLost())
		}
		require.NoError(t, Validate(f), "step %d", i)
		require.Equal(t, int64(len(ref)), f.Len())
	}

	for id, state := range ref {
		got, ok := f.State(id)
		require.True(t, ok)
		require.Equal(t, state, got)
	}
	for ship := range f.All() {
		_, ok := ref[ship.ID]
		require.True(t, ok)
	}
}

func TestFleetRandomInsertRemoveAll(t *testing.T) {
	prng := randv2.New(randv2.NewPCG(1, 2))
	ids := randomIDs(prng, 2000)
	f := NewFleet()
	for _, id := range ids {
		f.Insert(Ship{ID: id})
	}
	require.NoError(t, Validate(f))

	prng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	for i, id := range ids {
		f.Remove(id)
		require.False(t, f.Find(id))
		if i%50 == 0 {
			require.NoError(t, Validate(f))
		}
	}
	require.Equal(t, int64(0), f.Len())
	require.Nil(t, f.Root())
}

func BenchmarkFleetInsert(b *testing.B) {
	prng := randv2.New(randv2.NewPCG(3, 4))
	ids := randomIDs(prng, 10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f := NewFleet()
		for _, id := range ids {
			f.Insert(Ship{ID: id})
		}
	}
}

func BenchmarkFleetFind(b *testing.B) {
	prng := randv2.New(randv2.NewPCG(5, 6))
	ids := randomIDs(prng, 10000)
	f := NewFleet()
	for _, id := range ids {
		f.Insert(Ship{ID: id})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Find(ids[i%len(ids)])
	}
}

func randomIDs(prng *randv2.Rand, n int) []int {
	seen := make(map[int]struct{}, n)
	ids := make([]int, 0, n)
	for len(ids) < n {
		id := MinID + prng.IntN(MaxID-MinID+1)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Heap's algorithm.
func permutations(ids []int) [][]int {
	res := make([][]int, 0)
	arr := slices.Clone(ids)
	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			res = append(res, slices.Clone(arr))
			return
		}
		generate(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				arr[i], arr[k-1] = arr[k-1], arr[i]
			} else {
				arr[0], arr[k-1] = arr[k-1], arr[0]
			}
			generate(k - 1)
		}
	}
	generate(len(arr))
	return res
}
