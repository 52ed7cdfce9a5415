package spec

// Handle is the stable index of an item node within a Tree.
type Handle int

// NoParent is the parent handle of top level nodes.
const NoParent Handle = -1

// Node is one item of a Tree.
type Node struct {
	Handle   Handle
	Item     *Item
	Parent   Handle
	Index    int
	Depth    int
	Children []Handle
}

// Tree indexes an item forest in pre-order. Handles never change for the
// lifetime of the tree and are used to key per-run side tables.
type Tree struct {
	nodes []*Node
	roots []Handle
}

// NewTree indexes items and all their descendants.
func NewTree(items []*Item) *Tree {
	t := &Tree{}
	for i, item := range items {
		if item == nil {
			continue
		}
		t.roots = append(t.roots, t.add(item, NoParent, i, 0))
	}
	return t
}

func (t *Tree) add(item *Item, parent Handle, index, depth int) Handle {
	h := Handle(len(t.nodes))
	n := &Node{Handle: h, Item: item, Parent: parent, Index: index, Depth: depth}
	t.nodes = append(t.nodes, n)
	for i, child := range item.Children {
		if child == nil {
			continue
		}
		n.Children = append(n.Children, t.add(child, h, i, depth+1))
	}
	return h
}

// Node returns the node behind h.
func (t *Tree) Node(h Handle) *Node {
	return t.nodes[h]
}

// Roots returns the handles of the top level items.
func (t *Tree) Roots() []Handle {
	return t.roots
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}
