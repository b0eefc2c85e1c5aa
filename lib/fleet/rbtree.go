package fleet

import (
	"bufio"
	"io"
	"iter"
	"strconv"
)

type rbNode struct {
	left  *rbNode
	right *rbNode
	ship  Ship
	color RBColor
}

func (node *rbNode) Ship() Ship {
	return node.ship
}

func (node *rbNode) ID() int {
	return node.ship.ID
}

func (node *rbNode) Color() RBColor {
	return node.color
}

func (node *rbNode) Left() RBNode {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode) Right() RBNode {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

// Absent children are implicit black leaves.
func (node *rbNode) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode) isDoubleBlack() bool {
	return node != nil && node.color == DoubleBlack
}

func (node *rbNode) child(dir RBDirection) *rbNode {
	switch dir {
	case Left:
		return node.left
	case Right:
		return node.right
	default:
		// impossible run to here
		panic( /* debug assertion */ "[fleet] child slot without direction")
	}
}

func (node *rbNode) setChild(dir RBDirection, child *rbNode) {
	switch dir {
	case Left:
		node.left = child
	case Right:
		node.right = child
	default:
		// impossible run to here
		panic( /* debug assertion */ "[fleet] set child slot without direction")
	}
}

func (node *rbNode) maximum() *rbNode {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

// rbFrame is one step of a root-to-leaf descent: the visited node and the
// child slot the descent continued into.
type rbFrame struct {
	node *rbNode
	dir  RBDirection
}

type rbTree struct {
	root  *rbNode
	count int64
}

func NewFleet() Fleet {
	return &rbTree{}
}

func (tree *rbTree) Len() int64 {
	return tree.count
}

func (tree *rbTree) Root() RBNode {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// Nodes keep no parent pointers. Descents record the visited path as
// rbFrame stack, rebalancing unwinds that stack bottom-up and relinks the
// returned subtree roots into the parent slot.

/*
		 |                         |
		 X                         S
		/ \     rotateLeft(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func rotateLeft(x *rbNode) *rbNode {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[fleet] left rotate node x is nil or x.right is nil")
	}
	y := x.right
	x.right, y.left = y.left, x
	return y
}

/*
		 |                         |
		 X                         L
		/ \     rotateRight(X)    / \
	   L   S    ============>   Lc   X
	  / \                           / \
	Lc   Ld                       Ld   S
*/
func rotateRight(x *rbNode) *rbNode {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[fleet] right rotate node x is nil or x.left is nil")
	}
	y := x.left
	x.left, y.right = y.right, x
	return y
}

// rotateToward moves x one level down into its dir side.
func rotateToward(x *rbNode, dir RBDirection) *rbNode {
	switch dir {
	case Left:
		return rotateLeft(x)
	case Right:
		return rotateRight(x)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[fleet] rotate without direction")
	}
}

// recolorDown pushes x's blackness to both of its children.
func recolorDown(x *rbNode) {
	if x == nil || x.left == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[fleet] recolor node x without two children")
	}
	x.color = Red
	x.left.color = Black
	x.right.color = Black
}

// relink replaces the subtree visited at path[i] with sub.
func (tree *rbTree) relink(path []rbFrame, i int, sub *rbNode) {
	if i == 0 {
		tree.root = sub
		return
	}
	parent := path[i-1]
	parent.node.setChild(parent.dir, sub)
}

func (tree *rbTree) search(id int) *rbNode {
	for aux := tree.root; aux != nil; {
		if id == aux.ship.ID {
			return aux
		} else if id < aux.ship.ID {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil
}

func (tree *rbTree) Find(id int) bool {
	return tree.search(id) != nil
}

func (tree *rbTree) Get(id int) (Ship, bool) {
	if node := tree.search(id); node != nil {
		return node.ship, true
	}
	return Ship{}, false
}

func (tree *rbTree) State(id int) (ShipState, bool) {
	if node := tree.search(id); node != nil {
		return node.ship.State, true
	}
	return Alive, false
}

func (tree *rbTree) SetState(id int, state ShipState) bool {
	node := tree.search(id)
	if node == nil {
		return false
	}
	node.ship.State = state
	return true
}

// i1: Empty fleet, the new node becomes the root.
// i2: The new node hangs under the root directly, nothing to rebalance
// because the root is black.
// i3: Deeper insertion, rebalance every grandpa on the way back up.
func (tree *rbTree) Insert(ship Ship) {
	if !ValidID(ship.ID) || tree.Find(ship.ID) {
		return
	}

	z := &rbNode{ship: ship, color: Red}
	if /* i1 */ tree.root == nil {
		tree.root = z
		tree.root.color = Black
		tree.count++
		return
	}

	path := make([]rbFrame, 0, 32)
	for aux := tree.root; aux != nil; {
		dir := Left
		if ship.ID > aux.ship.ID {
			dir = Right
		}
		path = append(path, rbFrame{node: aux, dir: dir})
		aux = aux.child(dir)
	}
	last := path[len(path)-1]
	last.node.setChild(last.dir, z)
	tree.count++

	for /* i3 */ i := len(path) - 2; i >= 0; i-- {
		sub := tree.insertRebalance(path[i].node, path[i].dir, path[i+1].dir)
		tree.relink(path, i, sub)
	}
	tree.root.color = Black
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

G is visited with the outer direction (G to P) and the inner direction
(P to X) recorded during the descent. Only a black G with red P and red X
is a double red.

im1: The uncle U is red. Push G's blackness down. G may become a double red
with its own parent, it will be checked by the next frame up.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im2: The uncle U is black and X is the opposite direction to P (zig-zag).
Rotate P toward the outer direction, then X is on the line, enter im3.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im3: The uncle U is black and X is the same direction as P.

	    [G]                 [P]
	    / \    rotate(G)    / \
	  <P> [U]  ========>  <X> <G>
	  /                         \
	<X>                         [U]
*/
func (tree *rbTree) insertRebalance(g *rbNode, outer, inner RBDirection) *rbNode {
	p := g.child(outer)
	x := p.child(inner)
	if !g.isBlack() || !p.isRed() || !x.isRed() {
		return g
	}

	if /* im1 */ g.child(outer.opposite()).isRed() {
		recolorDown(g)
		return g
	}

	if /* im2 */ outer != inner {
		p = rotateToward(p, outer)
		g.setChild(outer, p)
	}
	/* im3 */
	g.color = Red
	p.color = Black
	return rotateToward(g, outer.opposite())
}

/*
r1: The root is the target.
(1) It has a left child, swap in the pred and remove the pred below.
(2) It has a right child only, the child must be a red leaf. It becomes the
new root.
(3) It is the only node.

r2: Current node X is the target and has a left child. Copy its pred's ship
into X, then keep descending to remove the pred instead.

	  |                    |
	  X                    L
	 / \                  / \
	L  ..   swap(X, L)   X  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                S  ..

r3: Current node X is the target and has a right child only. Move the right
child into the left slot, then enter r2.

r4: Current node X is a red leaf, remove directly.

r5: Current node X is a black leaf. Paint it double black, rebalance against
its parent then unlink it. X stays in the same child slot of the same parent
through every rebalance case, so the parent recorded in the path is still the
right one to unlink from.

Every frame above the leaf is rebalanced on the way back up, a double black
may climb to the root where it is absorbed by repainting the root black.
*/
func (tree *rbTree) Remove(id int) {
	if !tree.Find(id) {
		return
	}
	defer func() {
		tree.count--
	}()

	root := tree.root
	path := make([]rbFrame, 0, 32)
	if id == root.ship.ID {
		if /* r1 (1) */ root.left != nil {
			id = replaceWithPred(root)
			path = append(path, rbFrame{node: root, dir: Left})
		} else if /* r1 (2) */ root.right != nil {
			tree.root = root.right
			tree.root.color = Black
			root.right = nil
			return
		} else /* r1 (3) */ {
			tree.root = nil
			return
		}
	} else {
		dir := Left
		if id > root.ship.ID {
			dir = Right
		}
		path = append(path, rbFrame{node: root, dir: dir})
	}

	for {
		top := path[len(path)-1]
		x := top.node.child(top.dir)
		if x == nil {
			// impossible run to here
			panic( /* debug assertion */ "[fleet] remove descent fell off the tree")
		}

		if id > x.ship.ID {
			path = append(path, rbFrame{node: x, dir: Right})
			continue
		} else if id < x.ship.ID {
			path = append(path, rbFrame{node: x, dir: Left})
			continue
		}

		if /* r2 */ x.left != nil {
			id = replaceWithPred(x)
			path = append(path, rbFrame{node: x, dir: Left})
			continue
		} else if /* r3 */ x.right != nil {
			x.left, x.right = x.right, nil
			id = replaceWithPred(x)
			path = append(path, rbFrame{node: x, dir: Left})
			continue
		}

		if /* r4 */ x.isRed() {
			top.node.setChild(top.dir, nil)
			return
		}

		/* r5 */
		x.color = DoubleBlack
		sub := tree.removeRebalance(top.node, top.dir)
		top.node.setChild(top.dir, nil)
		i := len(path) - 1
		tree.relink(path, i, sub)
		for i--; i >= 0; i-- {
			sub = tree.removeRebalance(path[i].node, path[i].dir)
			tree.relink(path, i, sub)
		}
		tree.root.color = Black
		return
	}
}

// replaceWithPred copies the in-order predecessor's ship into x and returns
// the predecessor id, which is the next id to remove from x's left subtree.
func replaceWithPred(x *rbNode) int {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[fleet] pred of node without left child")
	}
	pred := x.left.maximum()
	x.ship = pred.ship
	return pred.ship.ID
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.
((X)) is the DOUBLE BLACK node.

X is the dir child of P. S is X's sibling, Sc is S's child near to X and Sd
is S's child far from X. The figures show X as the left child, the right
side mirrors them.

rm1: S is red, so P, Sc and Sd are black. Rotate P toward X, swap the
colors of P and S, then rebalance P again against X with its new black
sibling Sc.

	   [P]                   [S]
	   / \    rotate(P)      / \
	((X)) <S>  =========>  <P> [Sd]
	     / \               / \
	  [Sc] [Sd]        ((X)) [Sc]

rm2: S is black and Sd is red. Sd takes P's color, rotate P toward X.
If P was red and Sc was red as well, P and Sc would be a double red, so
push S's blackness down.

	    {P}                  [S]
	    / \    rotate(P)     / \
	((X)) [S]  =========>  {P} {Sd}
	      / \              / \
	   {Sc} <Sd>         [X] {Sc}

rm3: S is black, Sc is red and Sd is black. S takes P's color, rotate S away
from X and paint the lifted Sc black, then rotate P toward X.

	    {P}                    [Sc]
	    / \   rotate(S, P)     /  \
	((X)) [S]  ==========>   {P}   {S}
	      / \                / \     \
	    <Sc> [Sd]          [X] ..    [Sd]

rm4: S is black without red children. Paint S red. A black P absorbs
nothing and becomes double black for the frame above, a red P is painted
black and absorbs the double black.

	    {P}                 ((P)) or [P]
	    / \                  / \
	((X)) [S]   =====>     [X] <S>
	      / \                  / \
	   [Sc] [Sd]            [Sc] [Sd]

X is painted black in every case.
*/
func (tree *rbTree) removeRebalance(p *rbNode, dir RBDirection) *rbNode {
	x := p.child(dir)
	if !x.isDoubleBlack() {
		return p
	}

	s := p.child(dir.opposite())
	if s == nil {
		// impossible run to here
		panic( /* debug assertion */ "[fleet] double black node without sibling")
	}

	top := p
	if /* rm1 */ s.isRed() {
		p.color = Red
		s.color = Black
		top = rotateToward(p, dir)
		top.setChild(dir, tree.removeRebalance(p, dir))
	} else if sc, sd := s.child(dir), s.child(dir.opposite()); /* rm2 */ sd.isRed() {
		recolor := p.isRed() && sc.isRed()
		sd.color = p.color
		top = rotateToward(p, dir)
		if recolor {
			recolorDown(top)
		}
	} else if /* rm3 */ sc.isRed() {
		s.color = p.color
		sc = rotateToward(s, dir.opposite())
		p.setChild(dir.opposite(), sc)
		sc.color = Black
		top = rotateToward(p, dir)
	} else /* rm4 */ {
		if p.isBlack() {
			p.color = DoubleBlack
		} else {
			p.color = Black
		}
		s.color = Red
	}
	x.color = Black
	return top
}

func (tree *rbTree) RemoveLost() int {
	return tree.RemoveWhere(func(ship Ship) bool {
		return ship.State == Lost
	})
}

// RemoveWhere removes the matched ships one at a time, each removal
// rebalances the fleet on its own.
func (tree *rbTree) RemoveWhere(pred func(ship Ship) bool) int {
	if pred == nil {
		return 0
	}
	removed := 0
	for {
		target := tree.firstMatch(pred)
		if target == nil {
			return removed
		}
		tree.Remove(target.ship.ID)
		removed++
	}
}

// Preorder traversal, the first matched node wins.
func (tree *rbTree) firstMatch(pred func(ship Ship) bool) *rbNode {
	if tree.root == nil {
		return nil
	}
	stack := make([]*rbNode, 0, 32)
	stack = append(stack, tree.root)
	for size := len(stack); size > 0; size = len(stack) {
		aux := stack[size-1]
		stack = stack[:size-1]
		if pred(aux.ship) {
			return aux
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
	}
	return nil
}

// Inorder traversal to implement the DFS.
func (tree *rbTree) inorder(action func(node *rbNode) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*rbNode, 0, 32)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if !action(aux) {
			return
		}
		stack = stack[:size-1]
		for aux = aux.right; aux != nil; aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

func (tree *rbTree) All() iter.Seq[Ship] {
	return func(yield func(Ship) bool) {
		tree.inorder(func(node *rbNode) bool {
			return yield(node.ship)
		})
	}
}

func (tree *rbTree) Foreach(action func(idx int64, color RBColor, ship Ship) bool) {
	idx := int64(0)
	tree.inorder(func(node *rbNode) bool {
		if !action(idx, node.color, node.ship) {
			return false
		}
		idx++
		return true
	})
}

// Dump writes the parenthesized inorder visualization, like
// ((10000:RED)20000:BLACK(30000:RED)).
func (tree *rbTree) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	dump(bw, tree.root)
	return bw.Flush()
}

func dump(w *bufio.Writer, node *rbNode) {
	if node == nil {
		return
	}
	_ = w.WriteByte('(')
	dump(w, node.left)
	_, _ = w.WriteString(strconv.Itoa(node.ship.ID))
	_ = w.WriteByte(':')
	_, _ = w.WriteString(node.color.String())
	dump(w, node.right)
	_ = w.WriteByte(')')
}

// List writes one "id:STATE:TYPE" line per ship in ascending id order.
func (tree *rbTree) List(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for ship := range tree.All() {
		_, _ = bw.WriteString(strconv.Itoa(ship.ID))
		_ = bw.WriteByte(':')
		_, _ = bw.WriteString(ship.State.String())
		_ = bw.WriteByte(':')
		_, _ = bw.WriteString(ship.Type.String())
		_ = bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (tree *rbTree) Clear() {
	aux := tree.root
	tree.root = nil
	tree.count = 0
	if aux == nil {
		return
	}

	// Unlink every node so that a leaked RBNode view does not pin the
	// whole tree.
	stack := make([]*rbNode, 0, 32)
	stack = append(stack, aux)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.left, aux.right = nil, nil
	}
}
