package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hubconsole/hubconsole-go/pkg/content"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// View renders the tree and the details of the selected node side by side.
func (m AppModel) View() string {
	if m.Loading {
		return fmt.Sprintf("\n  Loading resources of %s...\n", m.DeviceID)
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press r to retry, q to quit.\n", m.Err)
	}

	width := m.WindowSize.Width
	if width < 40 {
		width = 80
	}
	height := m.WindowSize.Height
	if height < 10 {
		height = 24
	}

	leftWidth := (width - 6) / 2
	rightWidth := width - 6 - leftWidth
	boxHeight := height - 4

	left := boxStyle.Width(leftWidth).Height(boxHeight).Render(m.treeView(leftWidth, boxHeight))
	right := boxStyle.Width(rightWidth).Height(boxHeight).Render(m.detailsView(rightWidth))

	var b strings.Builder
	b.WriteString(titleStyle.Render("Resources of " + m.DeviceID))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m AppModel) treeView(width, height int) string {
	if len(m.rows) == 0 {
		if m.filter() != "" {
			return dimStyle.Render("No href matches the filter")
		}
		return dimStyle.Render("No resources")
	}

	// Keep the cursor in the middle of the window
	visible := height
	if visible < 1 {
		visible = 1
	}
	start, end := 0, len(m.rows)
	if len(m.rows) > visible {
		start = m.SelectedIdx - visible/2
		if start < 0 {
			start = 0
		}
		if start+visible > len(m.rows) {
			start = len(m.rows) - visible
		}
		end = start + visible
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		r := m.rows[i]
		line := strings.Repeat("  ", r.depth) + m.marker(r.node) + r.node.Href
		if len(line) > width-1 && width > 4 {
			line = line[:width-4] + "..."
		}

		switch {
		case i == m.SelectedIdx:
			line = selectedStyle.Render(line)
		case !r.node.Terminal():
			line = dirStyle.Render(line)
		default:
			line = normalStyle.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m AppModel) marker(n *restree.Node) string {
	if len(n.SubRows) == 0 {
		return "  "
	}
	if m.filter() != "" || m.expanded[n.Href] {
		return "▾ "
	}
	return "▸ "
}

func (m AppModel) detailsView(width int) string {
	n := m.Selected()
	if n == nil {
		return dimStyle.Render("Nothing selected")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(n.Href))
	b.WriteString("\n\n")

	if !n.Terminal() {
		fmt.Fprintf(&b, "Directory with %d entries\n", len(n.SubRows))
		fmt.Fprintf(&b, "%d resources below\n", len(restree.Flatten(n.SubRows)))
		return b.String()
	}

	if len(n.ResourceTypes) > 0 {
		fmt.Fprintf(&b, "Types:      %s\n", strings.Join(n.ResourceTypes, ", "))
	}
	if len(n.Interfaces) > 0 {
		fmt.Fprintf(&b, "Interfaces: %s\n", strings.Join(n.Interfaces, ", "))
	}
	if n.Title != "" {
		fmt.Fprintf(&b, "Title:      %s\n", n.Title)
	}
	fmt.Fprintf(&b, "Observable: %t\n", n.Observable())
	if len(n.SubRows) > 0 {
		fmt.Fprintf(&b, "Children:   %d\n", len(n.SubRows))
	}
	b.WriteString("\n")

	switch {
	case m.loadingHref == n.Href:
		b.WriteString(dimStyle.Render("Loading content..."))
	case m.ResourceErr != nil:
		b.WriteString(errorStyle.Render("Error: " + m.ResourceErr.Error()))
	case m.Resource != nil:
		b.WriteString(lipgloss.NewStyle().Width(width).Render(content.Pretty(m.Resource.Content)))
	default:
		b.WriteString(dimStyle.Render("Press enter to load the content"))
	}
	return b.String()
}

func (m AppModel) footer() string {
	if m.InputMode {
		return "Filter: " + m.InputBuffer.View() + dimStyle.Render("  (enter: keep, esc: clear)")
	}
	help := "↑/↓ move  ←/→ collapse/expand  space toggle  enter load  / filter  e/c all  r reload  q quit"
	if term := m.filter(); term != "" {
		help = fmt.Sprintf("filter %q  esc clear  ", term) + help
	}
	return dimStyle.Render(help)
}
