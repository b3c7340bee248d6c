package tree

import (
	"fmt"
	"io"
	"strings"
)

// Tree is a process-wide singleton: a fixed sentinel root whose key is
// the empty string. Every non-empty key compares greater than "", so the
// sentinel's right subtree holds every user key; its left subtree is
// never populated by the operations below, and its own key/value are
// never read except by Dump's "(root)" marker. The sentinel's lock is
// real and participates in hand-over-hand locking like any other node's.
type Tree struct {
	sentinel Node
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{}
}

// descend is the locked-descent primitive shared by Query, Insert, and
// Delete (spec.md §4.B). The caller must hold parent's lock in mode
// before calling. On return:
//   - if the key is present and keepParent is true, both the target's and
//     parent's locks are held;
//   - if present and keepParent is false, only the target's lock is held;
//   - if absent and keepParent is true, only parent's lock is held;
//   - if absent and keepParent is false, no lock is held.
//
// At most two node locks are ever held at once, and they are acquired in
// root-to-leaf order: the child's lock is always taken before the
// parent's is released.
func descend(parent *Node, key string, mode lockMode, keepParent bool) (target, heldParent *Node) {
	var next *Node
	if key < parent.key {
		next = parent.left
	} else {
		next = parent.right
	}

	if next == nil {
		if keepParent {
			return nil, parent
		}
		parent.unlock(mode)
		return nil, nil
	}

	next.lock(mode)
	if next.key == key {
		if keepParent {
			return next, parent
		}
		parent.unlock(mode)
		return next, nil
	}

	parent.unlock(mode)
	return descend(next, key, mode, keepParent)
}

// Query looks up key and returns its value. It never mutates the tree.
func (t *Tree) Query(key string) (string, bool) {
	t.sentinel.lock(modeRead)
	target, _ := descend(&t.sentinel, key, modeRead, false)
	if target == nil {
		return "", false
	}
	value := target.value
	target.unlock(modeRead)
	return value, true
}

// Insert adds key/value to the tree. It returns ErrDuplicate if key is
// already present, or ErrOversize if either field exceeds MaxFieldLen.
func (t *Tree) Insert(key, value string) error {
	if len(key) > MaxFieldLen || len(value) > MaxFieldLen {
		return ErrOversize
	}

	t.sentinel.lock(modeWrite)
	target, parent := descend(&t.sentinel, key, modeWrite, true)
	if target != nil {
		target.unlock(modeWrite)
		parent.unlock(modeWrite)
		return ErrDuplicate
	}

	child, err := newNode(key, value)
	if err != nil {
		parent.unlock(modeWrite)
		return err
	}
	attach(parent, key, child)
	parent.unlock(modeWrite)
	return nil
}

// Delete removes key from the tree, returning ErrNotFound if it is
// absent. See deleteBothChildren for the successor-replacement case.
func (t *Tree) Delete(key string) error {
	t.sentinel.lock(modeWrite)
	target, parent := descend(&t.sentinel, key, modeWrite, true)
	if target == nil {
		parent.unlock(modeWrite)
		return ErrNotFound
	}

	switch {
	case target.right == nil:
		attach(parent, target.key, target.left)
		target.unlock(modeWrite)
		parent.unlock(modeWrite)
	case target.left == nil:
		attach(parent, target.key, target.right)
		target.unlock(modeWrite)
		parent.unlock(modeWrite)
	default:
		t.deleteBothChildren(parent, target)
	}
	return nil
}

// attach splices replacement into the side of parent that childKey
// belongs on, mirroring the comparison used to reach it during descent.
func attach(parent *Node, childKey string, replacement *Node) {
	if childKey < parent.key {
		parent.left = replacement
	} else {
		parent.right = replacement
	}
}

// deleteBothChildren implements the in-place successor-replacement
// branch of Delete (spec.md §4.B, §9 open question): target has both
// children, so rather than unlinking target itself, the tree walks to
// target's in-order successor, unlinks the successor, and overwrites
// target's key/value with the successor's. target's own parent link —
// and therefore target's identity — never changes, so parent's lock can
// be released as soon as the successor walk begins; only target's own
// lock is held while its contents are overwritten.
func (t *Tree) deleteBothChildren(parent, target *Node) {
	succParent := target
	succ := target.right
	succIsLeftChild := false

	succ.lock(modeWrite)
	parent.unlock(modeWrite)

	for succ.left != nil {
		next := succ.left
		next.lock(modeWrite)
		succ.unlock(modeWrite)
		succParent = succ
		succ = next
		succIsLeftChild = true
	}

	if succIsLeftChild {
		succParent.left = succ.right
	} else {
		succParent.right = succ.right
	}

	target.key = succ.key
	target.value = succ.value

	succ.unlock(modeWrite)
	target.unlock(modeWrite)
}

// Dump writes one line per node to w: "depth spaces" followed by the
// sentinel marker "(root)", a node's "KEY VALUE", or "(null)" for an
// absent child. Each child's read lock is taken before its parent's is
// released; a node's read lock is dropped while its left subtree is
// printed and taken again to move on to its right child. At most two
// locks are held at once, so writers are blocked only along the current
// root-to-leaf spine.
func (t *Tree) Dump(w io.Writer) {
	t.sentinel.lock(modeRead)
	t.dumpLocked(&t.sentinel, 0, w)
}

func (t *Tree) dumpLocked(n *Node, depth int, w io.Writer) {
	t.printNode(n, depth, w)

	left := n.left
	if left != nil {
		left.lock(modeRead)
	}
	n.unlock(modeRead)
	if left != nil {
		t.dumpLocked(left, depth+1, w)
	} else {
		printNull(depth+1, w)
	}

	n.lock(modeRead)
	right := n.right
	if right != nil {
		right.lock(modeRead)
	}
	n.unlock(modeRead)
	if right != nil {
		t.dumpLocked(right, depth+1, w)
	} else {
		printNull(depth+1, w)
	}
}

func (t *Tree) printNode(n *Node, depth int, w io.Writer) {
	indent := strings.Repeat(" ", depth)
	if n == &t.sentinel {
		fmt.Fprintf(w, "%s(root)\n", indent)
		return
	}
	fmt.Fprintf(w, "%s%s %s\n", indent, n.key, n.value)
}

func printNull(depth int, w io.Writer) {
	fmt.Fprintf(w, "%s(null)\n", strings.Repeat(" ", depth))
}

// Teardown releases the tree's non-sentinel nodes. It must only be
// called once the supervisor has guaranteed there are no sessions left
// to observe the tree, so it takes no locks.
func (t *Tree) Teardown() {
	teardown(t.sentinel.left)
	teardown(t.sentinel.right)
	t.sentinel.left = nil
	t.sentinel.right = nil
}

func teardown(n *Node) {
	if n == nil {
		return
	}
	teardown(n.left)
	teardown(n.right)
	n.left = nil
	n.right = nil
}
