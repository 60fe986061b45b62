package spatial

const (
	QuadCapacity = 8
	QuadMaxDepth = 10
)

type quadItem[T any] struct {
	value  T
	bounds Rect
}

// Quadtree indexes values by their bounds. Items that straddle a split
// stay in the parent node.
type Quadtree[T any] struct {
	bounds Rect
	depth  int
	items  []quadItem[T]
	child  [4]*Quadtree[T]
	size   int
}

func NewQuadtree[T any](bounds Rect) *Quadtree[T] {
	return newQuadNode[T](bounds, 0)
}

func newQuadNode[T any](bounds Rect, depth int) *Quadtree[T] {
	return &Quadtree[T]{
		bounds: bounds,
		depth:  depth,
		items:  make([]quadItem[T], 0, QuadCapacity),
	}
}

// BuildQuadtree sizes the root to cover every item, then inserts them.
func BuildQuadtree[T any](values []T, boundsOf func(T) Rect) *Quadtree[T] {
	if len(values) == 0 {
		return NewQuadtree[T](Rect{})
	}
	root := boundsOf(values[0])
	for _, v := range values[1:] {
		root = root.Union(boundsOf(v))
	}
	q := NewQuadtree[T](root.Expand(1))
	for _, v := range values {
		q.Insert(v, boundsOf(v))
	}
	return q
}

// Len is the number of inserted items.
func (n *Quadtree[T]) Len() int { return n.size }

func (n *Quadtree[T]) Insert(value T, bounds Rect) {
	n.size++
	n.insert(quadItem[T]{value: value, bounds: bounds})
}

func (n *Quadtree[T]) insert(it quadItem[T]) {
	if n.child[0] != nil {
		if c := n.childThatContains(it.bounds); c != nil {
			c.insert(it)
			return
		}
	}

	n.items = append(n.items, it)

	if len(n.items) > QuadCapacity && n.depth < QuadMaxDepth {
		n.subdivide()
		kept := n.items[:0]
		for _, old := range n.items {
			if c := n.childThatContains(old.bounds); c != nil {
				c.insert(old)
			} else {
				kept = append(kept, old)
			}
		}
		n.items = kept
	}
}

// Query appends every value whose bounds intersect r. The root is always
// searched so items inserted outside its bounds are still found.
func (n *Quadtree[T]) Query(r Rect, out []T) []T {
	for _, it := range n.items {
		if it.bounds.Intersects(r) {
			out = append(out, it.value)
		}
	}
	for _, c := range n.child {
		if c != nil && c.bounds.Intersects(r) {
			out = c.Query(r, out)
		}
	}
	return out
}

func (n *Quadtree[T]) subdivide() {
	if n.child[0] != nil {
		return
	}
	mx := (n.bounds.MinX + n.bounds.MaxX) * 0.5
	mz := (n.bounds.MinZ + n.bounds.MaxZ) * 0.5
	b := n.bounds
	n.child[0] = newQuadNode[T](Rect{MinX: b.MinX, MinZ: b.MinZ, MaxX: mx, MaxZ: mz}, n.depth+1)
	n.child[1] = newQuadNode[T](Rect{MinX: mx, MinZ: b.MinZ, MaxX: b.MaxX, MaxZ: mz}, n.depth+1)
	n.child[2] = newQuadNode[T](Rect{MinX: b.MinX, MinZ: mz, MaxX: mx, MaxZ: b.MaxZ}, n.depth+1)
	n.child[3] = newQuadNode[T](Rect{MinX: mx, MinZ: mz, MaxX: b.MaxX, MaxZ: b.MaxZ}, n.depth+1)
}

func (n *Quadtree[T]) childThatContains(b Rect) *Quadtree[T] {
	for _, c := range n.child {
		if c != nil && c.bounds.Contains(b) {
			return c
		}
	}
	return nil
}
