package quadtree

// Scratch holds the buffers a traversal needs so that a caller running one
// every frame does not allocate. The zero value is ready to use; a Scratch
// must not be shared between concurrent traversals.
type Scratch struct {
	stack []*Tile
	order []*Tile
}

// PostOrder returns every tile of the subtree rooted at root, each tile after
// all of its descendants, children in quadrant order. The returned slice is
// owned by s and is overwritten by the next call.
func (s *Scratch) PostOrder(root *Tile) []*Tile {
	s.order = PostOrder(root, s.order[:0], &s.stack)
	return s.order
}

// Leaves returns the leaf tiles of the subtree in quadrant order. The returned
// slice is owned by s and is overwritten by the next call.
func (s *Scratch) Leaves(root *Tile) []*Tile {
	s.order = s.order[:0]
	s.walk(root, func(t *Tile) bool {
		if t.IsLeaf() {
			s.order = append(s.order, t)
		}
		return true
	})
	return s.order
}

// PostOrder appends the post-order of the subtree rooted at root to dst. The
// walk uses an explicit stack kept in *stack (which may point to a nil
// slice), so tree depth never grows the goroutine stack.
func PostOrder(root *Tile, dst []*Tile, stack *[]*Tile) []*Tile {
	if root == nil {
		return dst
	}

	// The reverse of a (node, children right-to-left) pre-order is a
	// (children left-to-right, node) post-order.
	start := len(dst)
	st := append((*stack)[:0], root)
	for len(st) > 0 {
		t := st[len(st)-1]
		st = st[:len(st)-1]
		dst = append(dst, t)
		st = append(st, t.Children()...)
	}
	*stack = st

	out := dst[start:]
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return dst
}

// Walk visits the subtree in pre-order, children in quadrant order.
// Returning false from fn skips the tile's children.
func Walk(root *Tile, fn func(*Tile) bool) {
	var s Scratch
	s.walk(root, fn)
}

func (s *Scratch) walk(root *Tile, fn func(*Tile) bool) {
	if root == nil {
		return
	}
	st := append(s.stack[:0], root)
	for len(st) > 0 {
		t := st[len(st)-1]
		st = st[:len(st)-1]
		if !fn(t) {
			continue
		}
		children := t.Children()
		for i := len(children) - 1; i >= 0; i-- {
			st = append(st, children[i])
		}
	}
	s.stack = st
}
