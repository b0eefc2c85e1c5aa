package fleet

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// rbtree rule validation utilities.

var (
	ErrRedViolation      = errors.New("[fleet] rbtree red violation")
	ErrBlackViolation    = errors.New("[fleet] rbtree black violation")
	ErrOrderViolation    = errors.New("[fleet] rbtree order violation")
	ErrIDOutOfRange      = errors.New("[fleet] ship id out of range")
	ErrRootNotBlack      = errors.New("[fleet] rbtree root is not black")
	ErrDoubleBlackAtRest = errors.New("[fleet] rbtree double black at rest")
	ErrLenMismatch       = errors.New("[fleet] fleet length mismatch")
)

// Inorder traversal to validate that no red node has a red child.
func RedViolationValidate(f Fleet) error {
	var errs error
	walk(f.Root(), func(node RBNode) {
		if node.Color() != Red {
			return
		}
		if isRedNode(node.Left()) || isRedNode(node.Right()) {
			errs = multierr.Append(errs, fmt.Errorf("%w: red node %d has a red child", ErrRedViolation, node.ID()))
		}
	})
	return errs
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

Each NIL leaf to root path has the same black depth.
*/
func BlackViolationValidate(f Fleet) error {
	_, err := blackHeight(f.Root())
	return err
}

func blackHeight(node RBNode) (int, error) {
	if node == nil {
		return 0, nil
	}
	l, err := blackHeight(node.Left())
	if err != nil {
		return -1, err
	}
	r, err := blackHeight(node.Right())
	if err != nil {
		return -1, err
	}
	if l != r {
		return -1, fmt.Errorf("%w: node %d left black height %d, right black height %d",
			ErrBlackViolation, node.ID(), l, r)
	}
	if node.Color() != Red {
		l++
	}
	return l, nil
}

// OrderViolationValidate checks the binary search ordering, the id range and
// the id uniqueness (implied by the strict ordering).
func OrderViolationValidate(f Fleet) error {
	var (
		errs  error
		prev  = MinID - 1
		first = true
	)
	walk(f.Root(), func(node RBNode) {
		id := node.ID()
		if !ValidID(id) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %d", ErrIDOutOfRange, id))
		}
		if !first && id <= prev {
			errs = multierr.Append(errs, fmt.Errorf("%w: %d after %d", ErrOrderViolation, id, prev))
		}
		prev, first = id, false
	})
	return errs
}

// Validate checks every at-rest property of the fleet and reports all
// violations at once.
func Validate(f Fleet) error {
	var (
		errs  error
		count int64
	)
	root := f.Root()
	if root != nil && root.Color() != Black {
		errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrRootNotBlack, root.Color()))
	}
	walk(root, func(node RBNode) {
		count++
		if node.Color() == DoubleBlack {
			errs = multierr.Append(errs, fmt.Errorf("%w: node %d", ErrDoubleBlackAtRest, node.ID()))
		}
	})
	if count != f.Len() {
		errs = multierr.Append(errs, fmt.Errorf("%w: counted %d, reported %d", ErrLenMismatch, count, f.Len()))
	}
	return multierr.Combine(
		errs,
		OrderViolationValidate(f),
		RedViolationValidate(f),
		BlackViolationValidate(f),
	)
}

func isRedNode(node RBNode) bool {
	return node != nil && node.Color() == Red
}

// Inorder walk over the read-only node view.
func walk(root RBNode, visit func(node RBNode)) {
	stack := make([]RBNode, 0, 32)
	for aux := root; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		visit(aux)
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
}

// Clone returns a deep copy of the fleet, colors and shape included.
func Clone(f Fleet) Fleet {
	dst := &rbTree{count: f.Len()}
	dst.root = cloneNode(f.Root())
	return dst
}

func cloneNode(node RBNode) *rbNode {
	if node == nil {
		return nil
	}
	return &rbNode{
		ship:  node.Ship(),
		color: node.Color(),
		left:  cloneNode(node.Left()),
		right: cloneNode(node.Right()),
	}
}

// Equal reports whether both fleets hold the same ships with the same colors
// in the same shape.
func Equal(lhs, rhs Fleet) bool {
	return lhs.Len() == rhs.Len() && nodeEqual(lhs.Root(), rhs.Root())
}

func nodeEqual(lhs, rhs RBNode) bool {
	if lhs == nil || rhs == nil {
		return lhs == nil && rhs == nil
	}
	return lhs.Ship() == rhs.Ship() &&
		lhs.Color() == rhs.Color() &&
		nodeEqual(lhs.Left(), rhs.Left()) &&
		nodeEqual(lhs.Right(), rhs.Right())
}
