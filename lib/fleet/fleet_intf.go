package fleet

import (
	"io"
	"iter"
)

// Ship ids live in the closed range [MinID, MaxID].
const (
	MinID = 10000
	MaxID = 99999
)

type ShipType uint8

const (
	Cargo ShipType = iota
	Telescope
	Communicator
	FuelCarrier
	RoboCarrier
	_shipTypeMax
)

func (typ ShipType) String() string {
	switch typ {
	case Cargo:
		return "CARGO"
	case Telescope:
		return "TELESCOPE"
	case Communicator:
		return "COMMUNICATOR"
	case FuelCarrier:
		return "FUELCARRIER"
	case RoboCarrier:
		return "ROBOCARRIER"
	default:
	}
	return "UNKNOWN"
}

// ShipTypes returns every known ship type in declaration order.
func ShipTypes() []ShipType {
	types := make([]ShipType, 0, _shipTypeMax)
	for typ := Cargo; typ < _shipTypeMax; typ++ {
		types = append(types, typ)
	}
	return types
}

type ShipState uint8

const (
	Alive ShipState = iota
	Lost
)

func (state ShipState) String() string {
	switch state {
	case Alive:
		return "ALIVE"
	case Lost:
		return "LOST"
	default:
	}
	return "UNKNOWN"
}

type RBColor uint8

const (
	Red RBColor = iota
	Black
	// DoubleBlack only exists inside a single removal, never at rest.
	DoubleBlack
)

func (color RBColor) String() string {
	switch color {
	case Red:
		return "RED"
	case Black:
		return "BLACK"
	case DoubleBlack:
		return "DOUBLEBLACK"
	default:
	}
	return "UNKNOWN"
}

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

func (dir RBDirection) opposite() RBDirection {
	return -dir
}

// Ship is the record payload stored by the fleet, keyed by ID.
type Ship struct {
	ID    int
	Type  ShipType
	State ShipState
}

// ValidID reports whether id is inside [MinID, MaxID].
func ValidID(id int) bool {
	return id >= MinID && id <= MaxID
}

// RBNode is a read-only view of a fleet node, mainly for validators and
// diagnostics. Absent children are reported as nil.
type RBNode interface {
	Ship() Ship
	ID() int
	Color() RBColor
	Left() RBNode
	Right() RBNode
}

// Fleet is an ordered set of ships balanced as a red-black tree.
//
// It is not safe for concurrent use. Invalid input never panics:
// rejected inserts, removals of absent ids and failed lookups are no-ops.
type Fleet interface {
	Len() int64
	Root() RBNode

	Insert(ship Ship)
	Remove(id int)
	Find(id int) bool
	Get(id int) (Ship, bool)
	State(id int) (ShipState, bool)
	SetState(id int, state ShipState) bool

	// RemoveLost removes every ship in the Lost state and returns how many
	// were removed.
	RemoveLost() int
	RemoveWhere(pred func(ship Ship) bool) int

	// All yields the ships in ascending id order. The sequence may be
	// ranged over any number of times.
	All() iter.Seq[Ship]
	Foreach(action func(idx int64, color RBColor, ship Ship) bool)
	Dump(w io.Writer) error
	List(w io.Writer) error

	Clear()
}
