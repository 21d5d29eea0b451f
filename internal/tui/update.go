package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
)

// MsgTreeReady carries a loaded resource tree.
type MsgTreeReady []*restree.Node

// MsgResourceReady carries the content of a resource.
type MsgResourceReady struct {
	Href     string
	Resource *model.Resource
	Err      error
}

// MsgError indicates loading the tree failed.
type MsgError error

// Init starts loading the tree.
func (m AppModel) Init() tea.Cmd {
	return m.loadTreeCmd()
}

func (m AppModel) loadTreeCmd() tea.Cmd {
	src, ctx, deviceID, timeout := m.source, m.ctx, m.DeviceID, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		nodes, err := src.GetResourceTree(ctx, deviceID)
		if err != nil {
			return MsgError(err)
		}
		return MsgTreeReady(nodes)
	}
}

func (m AppModel) loadResourceCmd(href string) tea.Cmd {
	src, ctx, deviceID, timeout := m.source, m.ctx, m.DeviceID, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		res, err := src.GetResource(ctx, deviceID, href, true)
		return MsgResourceReady{Href: href, Resource: res, Err: err}
	}
}

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		return m, nil

	case MsgTreeReady:
		m.Loading = false
		m.Err = nil
		m.Nodes = msg
		m.rebuild()
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case MsgResourceReady:
		// Drop answers for a node the cursor already left
		if msg.Href != m.loadingHref {
			return m, nil
		}
		m.loadingHref = ""
		m.Resource = msg.Resource
		m.ResourceErr = msg.Err
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				return m, nil
			case tea.KeyEsc:
				m.clearFilter()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			m.rebuild()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.filter() != "" {
				m.clearFilter()
			}
		case "up", "k":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.clearDetails()
			}
		case "down", "j":
			if m.SelectedIdx < len(m.rows)-1 {
				m.SelectedIdx++
				m.clearDetails()
			}
		case "home", "g":
			m.SelectedIdx = 0
			m.clearDetails()
		case "end", "G":
			if len(m.rows) > 0 {
				m.SelectedIdx = len(m.rows) - 1
				m.clearDetails()
			}
		case "right", "l":
			m.expand()
		case "left", "h":
			m.collapse()
		case " ":
			m.toggle()
		case "enter":
			n := m.Selected()
			if n == nil {
				return m, nil
			}
			if n.Terminal() {
				m.loadingHref = n.Href
				m.Resource = nil
				m.ResourceErr = nil
				return m, m.loadResourceCmd(n.Href)
			}
			m.toggle()
		case "e":
			m.setAll(m.Nodes, true)
			m.rebuild()
		case "c":
			m.setAll(m.Nodes, false)
			m.rebuild()
		case "r":
			m.Loading = true
			return m, m.loadTreeCmd()
		case "/":
			m.InputMode = true
			m.InputBuffer.Focus()
			return m, textinput.Blink
		}
	}

	return m, cmd
}

func (m *AppModel) clearFilter() {
	m.InputMode = false
	m.InputBuffer.Blur()
	m.InputBuffer.SetValue("")
	m.rebuild()
}

func (m *AppModel) clearDetails() {
	m.Resource = nil
	m.ResourceErr = nil
	m.loadingHref = ""
}

func (m *AppModel) expand() {
	n := m.Selected()
	if n == nil || len(n.SubRows) == 0 || m.expanded[n.Href] {
		return
	}
	m.expanded[n.Href] = true
	m.rebuild()
}

// collapse closes the selected node, or moves to its parent when it is
// already closed.
func (m *AppModel) collapse() {
	n := m.Selected()
	if n == nil {
		return
	}
	if len(n.SubRows) > 0 && m.expanded[n.Href] {
		delete(m.expanded, n.Href)
		m.rebuild()
		return
	}
	if p := m.parentIndex(m.SelectedIdx); p >= 0 {
		m.SelectedIdx = p
		m.clearDetails()
	}
}

func (m *AppModel) toggle() {
	n := m.Selected()
	if n == nil || len(n.SubRows) == 0 {
		return
	}
	if m.expanded[n.Href] {
		delete(m.expanded, n.Href)
	} else {
		m.expanded[n.Href] = true
	}
	m.rebuild()
}

func (m *AppModel) setAll(nodes []*restree.Node, open bool) {
	for _, n := range nodes {
		if len(n.SubRows) == 0 {
			continue
		}
		if open {
			m.expanded[n.Href] = true
		} else {
			delete(m.expanded, n.Href)
		}
		m.setAll(n.SubRows, open)
	}
}
