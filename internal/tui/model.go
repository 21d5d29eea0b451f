// Package tui implements the terminal resource tree browser.
package tui

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
)

// Source loads what the browser displays.
type Source interface {
	GetResourceTree(ctx context.Context, deviceID string) ([]*restree.Node, error)
	GetResource(ctx context.Context, deviceID, href string, twin bool) (*model.Resource, error)
}

// row is one visible line of the tree.
type row struct {
	node  *restree.Node
	depth int
}

// AppModel holds the browser state.
type AppModel struct {
	// Data
	DeviceID string
	Nodes    []*restree.Node
	Loading  bool
	Err      error

	// UI State
	SelectedIdx int
	WindowSize  tea.WindowSizeMsg
	expanded    map[string]bool
	rows        []row

	// Filter State
	InputMode   bool
	InputBuffer textinput.Model

	// Details pane
	Resource    *model.Resource
	ResourceErr error
	loadingHref string

	source  Source
	ctx     context.Context
	timeout time.Duration
}

// InitialModel returns the browser for deviceID. Hrefs in expanded start
// open.
func InitialModel(ctx context.Context, src Source, deviceID string, expanded []string) AppModel {
	ti := textinput.New()
	ti.Placeholder = "filter hrefs..."
	ti.CharLimit = 64
	ti.Width = 30

	m := AppModel{
		DeviceID:    deviceID,
		Loading:     true,
		InputBuffer: ti,
		expanded:    make(map[string]bool),
		source:      src,
		ctx:         ctx,
		timeout:     10 * time.Second,
	}
	for _, href := range expanded {
		m.expanded[href] = true
	}
	return m
}

// Expanded returns the hrefs of the open directory nodes, sorted.
func (m AppModel) Expanded() []string {
	hrefs := make([]string, 0, len(m.expanded))
	for href, open := range m.expanded {
		if open {
			hrefs = append(hrefs, href)
		}
	}
	sort.Strings(hrefs)
	return hrefs
}

// Selected returns the node under the cursor, or nil.
func (m AppModel) Selected() *restree.Node {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.rows) {
		return nil
	}
	return m.rows[m.SelectedIdx].node
}

// filter returns the lowercased filter term.
func (m AppModel) filter() string {
	return strings.ToLower(strings.TrimSpace(m.InputBuffer.Value()))
}

// rebuild recomputes the visible rows and keeps the cursor on the same
// node when it is still visible.
func (m *AppModel) rebuild() {
	var current string
	if n := m.Selected(); n != nil {
		current = n.Href
	}

	term := m.filter()
	m.rows = nil
	if term == "" {
		m.appendExpanded(m.Nodes, 0)
	} else {
		m.appendMatching(m.Nodes, 0, term)
	}

	m.SelectedIdx = 0
	for i, r := range m.rows {
		if r.node.Href == current {
			m.SelectedIdx = i
			break
		}
	}
}

func (m *AppModel) appendExpanded(nodes []*restree.Node, depth int) {
	for _, n := range nodes {
		m.rows = append(m.rows, row{node: n, depth: depth})
		if len(n.SubRows) > 0 && m.expanded[n.Href] {
			m.appendExpanded(n.SubRows, depth+1)
		}
	}
}

// appendMatching shows every node whose href contains term, with its
// ancestors, regardless of expansion.
func (m *AppModel) appendMatching(nodes []*restree.Node, depth int, term string) {
	for _, n := range nodes {
		if !subtreeMatches(n, term) {
			continue
		}
		m.rows = append(m.rows, row{node: n, depth: depth})
		m.appendMatching(n.SubRows, depth+1, term)
	}
}

func subtreeMatches(n *restree.Node, term string) bool {
	if strings.Contains(strings.ToLower(n.Href), term) {
		return true
	}
	for _, c := range n.SubRows {
		if subtreeMatches(c, term) {
			return true
		}
	}
	return false
}

// parentIndex returns the row index of the nearest shallower row above i.
func (m AppModel) parentIndex(i int) int {
	depth := m.rows[i].depth
	for j := i - 1; j >= 0; j-- {
		if m.rows[j].depth < depth {
			return j
		}
	}
	return -1
}
