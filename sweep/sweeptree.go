package sweep

import veld "github.com/veldgfx/veld"

// sweepNode is one edge currently crossed by the sweepline. It lives in
// an AVL tree ordered by x at the current sweep y, and is additionally
// threaded through a doubly-linked list in the same order for
// constant-time neighbour access. Each node carries the two pending
// intersection events with its immediate neighbours, so they can be
// removed by identity when the neighbourhood changes.
type sweepNode struct {
	edge int // index into the working shape

	// a and b are the rounded endpoints with a the upper one
	// (a.Y < b.Y, or a.X <= b.X for horizontal edges).
	a, b veld.Point

	left, right, parent *sweepNode
	height              int

	prev, next *sweepNode

	// evtLeft and evtRight are the pending intersection events with the
	// current left and right neighbours, if any.
	evtLeft, evtRight *intersectionEvent
}

// xAt returns the x coordinate of the node's edge at sweep height y.
func (n *sweepNode) xAt(y float64) float64 {
	if n.a.Y == n.b.Y {
		return n.a.X
	}
	if y <= n.a.Y {
		return n.a.X
	}
	if y >= n.b.Y {
		return n.b.X
	}
	t := (y - n.a.Y) / (n.b.Y - n.a.Y)
	return n.a.X + t*(n.b.X-n.a.X)
}

// slope returns dx/dy, with horizontal edges sorting last among edges
// through the same point.
func (n *sweepNode) slope() float64 {
	if n.a.Y == n.b.Y {
		return 1e300
	}
	return (n.b.X - n.a.X) / (n.b.Y - n.a.Y)
}

// sweepTree is the set of edges crossing the sweepline: an AVL tree
// with an x-ordered linked list threaded through it.
type sweepTree struct {
	root *sweepNode
	head *sweepNode
	tail *sweepNode
}

// before orders two nodes at sweep height y, breaking x ties by slope
// so that edges leave the common point in left-to-right order below it.
// sweepSens selects the top-down sweep orientation; the false branch
// reorients the tiebreak for a hypothetical bottom-up sweep and is not
// exercised by the default pipeline.
func before(a, b *sweepNode, y float64, sweepSens bool) bool {
	xa, xb := a.xAt(y), b.xAt(y)
	if xa != xb {
		return xa < xb
	}
	if sweepSens {
		return a.slope() < b.slope()
	}
	return a.slope() > b.slope()
}

// insert places node into the tree and list at sweep height y.
func (t *sweepTree) insert(node *sweepNode, y float64) {
	node.left, node.right, node.parent = nil, nil, nil
	node.height = 1
	if t.root == nil {
		t.root = node
		t.head, t.tail = node, node
		return
	}
	cur := t.root
	for {
		if before(node, cur, y, true) {
			if cur.left == nil {
				cur.left = node
				node.parent = cur
				break
			}
			cur = cur.left
		} else {
			if cur.right == nil {
				cur.right = node
				node.parent = cur
				break
			}
			cur = cur.right
		}
	}
	// Thread into the list next to the parent.
	if cur.left == node {
		node.prev = cur.prev
		node.next = cur
		cur.prev = node
		if node.prev != nil {
			node.prev.next = node
		} else {
			t.head = node
		}
	} else {
		node.next = cur.next
		node.prev = cur
		cur.next = node
		if node.next != nil {
			node.next.prev = node
		} else {
			t.tail = node
		}
	}
	t.rebalance(cur)
}

// remove unlinks node from the tree and list.
func (t *sweepTree) remove(node *sweepNode) {
	// List first.
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		t.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		t.tail = node.prev
	}

	// Standard pointer-based BST deletion, rebalancing from the lowest
	// structurally changed position upwards.
	var fixFrom *sweepNode
	if node.left == nil || node.right == nil {
		child := node.left
		if child == nil {
			child = node.right
		}
		t.replaceChild(node.parent, node, child)
		if child != nil {
			child.parent = node.parent
		}
		fixFrom = node.parent
	} else {
		succ := node.right
		for succ.left != nil {
			succ = succ.left
		}
		if succ.parent != node {
			fixFrom = succ.parent
			t.replaceChild(succ.parent, succ, succ.right)
			if succ.right != nil {
				succ.right.parent = succ.parent
			}
			succ.right = node.right
			succ.right.parent = succ
		} else {
			fixFrom = succ
		}
		succ.left = node.left
		succ.left.parent = succ
		succ.parent = node.parent
		t.replaceChild(node.parent, node, succ)
		succ.height = node.height
	}
	node.left, node.right, node.parent = nil, nil, nil
	t.rebalance(fixFrom)
}

func (t *sweepTree) replaceChild(parent, old, new *sweepNode) {
	if parent == nil {
		t.root = new
		return
	}
	if parent.left == old {
		parent.left = new
	} else if parent.right == old {
		parent.right = new
	}
}

func height(n *sweepNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func (t *sweepTree) rebalance(n *sweepNode) {
	for n != nil {
		hl, hr := height(n.left), height(n.right)
		n.height = 1 + max(hl, hr)
		switch {
		case hl-hr > 1:
			if height(n.left.right) > height(n.left.left) {
				t.rotateLeft(n.left)
			}
			n = t.rotateRight(n)
		case hr-hl > 1:
			if height(n.right.left) > height(n.right.right) {
				t.rotateRight(n.right)
			}
			n = t.rotateLeft(n)
		}
		n = n.parent
	}
}

func (t *sweepTree) rotateLeft(n *sweepNode) *sweepNode {
	r := n.right
	n.right = r.left
	if r.left != nil {
		r.left.parent = n
	}
	r.parent = n.parent
	t.replaceChild(n.parent, n, r)
	r.left = n
	n.parent = r
	n.height = 1 + max(height(n.left), height(n.right))
	r.height = 1 + max(height(r.left), height(r.right))
	return r
}

func (t *sweepTree) rotateRight(n *sweepNode) *sweepNode {
	l := n.left
	n.left = l.right
	if l.right != nil {
		l.right.parent = n
	}
	l.parent = n.parent
	t.replaceChild(n.parent, n, l)
	l.right = n
	n.parent = l
	n.height = 1 + max(height(n.left), height(n.right))
	l.height = 1 + max(height(l.left), height(l.right))
	return l
}
