package restree

import (
	"strings"
)

// Formatter renders a resource tree as indented text.
type Formatter struct {
	// ShowTypes appends the resource types of terminal nodes.
	ShowTypes bool

	// ShowInterfaces appends the interfaces of terminal nodes.
	ShowInterfaces bool

	// IndentWidth is the number of spaces per nesting level.
	IndentWidth int
}

// NewFormatter creates a Formatter showing types and interfaces.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowTypes:      true,
		ShowInterfaces: true,
		IndentWidth:    2,
	}
}

// Format renders every node on its own line.
func (f *Formatter) Format(nodes []*Node) string {
	var sb strings.Builder
	Walk(nodes, func(n *Node, depth int) bool {
		sb.WriteString(f.Line(n, depth))
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}

// Line renders a single node at depth.
func (f *Formatter) Line(n *Node, depth int) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", depth*width))
	sb.WriteString(n.Href)
	if !n.Terminal() {
		return sb.String()
	}
	if f.ShowTypes && len(n.ResourceTypes) > 0 {
		sb.WriteString("  [")
		sb.WriteString(strings.Join(n.ResourceTypes, ", "))
		sb.WriteString("]")
	}
	if f.ShowInterfaces && len(n.Interfaces) > 0 {
		sb.WriteString("  (")
		sb.WriteString(strings.Join(n.Interfaces, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}
