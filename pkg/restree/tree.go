package restree

import (
	"sort"
	"strings"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

// Node is one row of the resource tree. A node built from a link embeds
// the link fields; a pure directory node has a nil ResourceLink and an href
// equal to its key.
type Node struct {
	*model.ResourceLink
	Href    string  `json:"href"`
	SubRows []*Node `json:"subRows,omitempty"`
}

// Terminal reports whether the node carries resource link fields.
func (n *Node) Terminal() bool {
	return n.ResourceLink != nil
}

type entry struct {
	href    string
	link    *model.ResourceLink
	subRows map[string]*entry
}

// Index accumulates resource links keyed by href prefix. The zero value is
// not usable; create one with NewIndex.
type Index struct {
	rows map[string]*entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{rows: make(map[string]*entry)}
}

// Insert adds a link to the index. Links without path segments are
// ignored and Insert reports false.
func (x *Index) Insert(link model.ResourceLink) bool {
	segs := ParseHref(link.Href)
	if len(segs) == 0 {
		return false
	}
	insert(x.rows, &link, segs, 1)
	return true
}

func insert(rows map[string]*entry, link *model.ResourceLink, segs []string, pos int) {
	key := Key(segs, pos)
	e, ok := rows[key]
	if !ok {
		e = &entry{href: key}
		rows[key] = e
	}

	if pos == len(segs) {
		merged := link.Clone()
		if e.link != nil {
			merged = e.link.Merge(merged)
		}
		e.link = &merged
		e.href = link.Href
		return
	}

	if e.subRows == nil {
		e.subRows = make(map[string]*entry)
	}
	insert(e.subRows, link, segs, pos+1)
}

// Nodes densifies the index into sorted node slices, recursively. Every
// call returns a fresh tree.
func (x *Index) Nodes() []*Node {
	return densify(x.rows)
}

func densify(rows map[string]*entry) []*Node {
	nodes := make([]*Node, 0, len(rows))
	for _, e := range rows {
		n := &Node{Href: e.href}
		if e.link != nil {
			l := e.link.Clone()
			n.ResourceLink = &l
		}
		if e.subRows != nil {
			n.SubRows = densify(e.subRows)
		}
		nodes = append(nodes, n)
	}
	sortNodes(nodes)
	return nodes
}

// sortNodes orders case-insensitively by href. Equal folds fall back to the
// raw href so the order does not depend on map iteration.
func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		li, lj := strings.ToLower(nodes[i].Href), strings.ToLower(nodes[j].Href)
		if li != lj {
			return li < lj
		}
		return nodes[i].Href < nodes[j].Href
	})
}

// Build folds the links into a tree. Nil or empty input yields an empty,
// non-nil slice.
func Build(links []model.ResourceLink) []*Node {
	x := NewIndex()
	for _, l := range links {
		x.Insert(l)
	}
	return x.Nodes()
}

// Walk visits every node depth-first with its nesting depth. Returning
// false from fn skips the node's sub rows.
func Walk(nodes []*Node, fn func(n *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(n *Node, depth int) bool) {
	for _, n := range nodes {
		if fn(n, depth) && len(n.SubRows) > 0 {
			walk(n.SubRows, depth+1, fn)
		}
	}
}

// Flatten returns the resource links of all terminal nodes depth-first.
func Flatten(nodes []*Node) []model.ResourceLink {
	links := make([]model.ResourceLink, 0)
	Walk(nodes, func(n *Node, _ int) bool {
		if n.Terminal() {
			links = append(links, *n.ResourceLink)
		}
		return true
	})
	return links
}

// Count returns the number of terminal nodes.
func Count(nodes []*Node) int {
	count := 0
	Walk(nodes, func(n *Node, _ int) bool {
		if n.Terminal() {
			count++
		}
		return true
	})
	return count
}

// Find returns the node for href, or nil. Trailing slash variants match
// the same node.
func Find(nodes []*Node, href string) *Node {
	target := KeyOf(href)
	if target == "/" {
		return nil
	}
	var found *Node
	Walk(nodes, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		key := KeyOf(n.Href)
		if key == target {
			found = n
			return false
		}
		return strings.HasPrefix(target, key)
	})
	return found
}
