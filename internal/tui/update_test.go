package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubconsole/hubconsole-go/pkg/model"
	"github.com/hubconsole/hubconsole-go/pkg/restree"
)

type fakeSource struct {
	links   []model.ResourceLink
	treeErr error
	gets    []string
}

func (f *fakeSource) GetResourceTree(_ context.Context, _ string) ([]*restree.Node, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	return restree.Build(f.links), nil
}

func (f *fakeSource) GetResource(_ context.Context, deviceID, href string, _ bool) (*model.Resource, error) {
	f.gets = append(f.gets, href)
	return &model.Resource{
		ResourceID: model.ResourceID{DeviceID: deviceID, Href: href},
		Content:    map[string]any{"value": true},
	}, nil
}

func newSource() *fakeSource {
	mk := func(href string) model.ResourceLink {
		return model.ResourceLink{Href: href, DeviceID: "dev-1", ResourceTypes: []string{"x.test"}}
	}
	return &fakeSource{links: []model.ResourceLink{
		mk("/light/1"), mk("/light/2"), mk("/oic/d"), mk("/oic/p"),
	}}
}

func loaded(t *testing.T, src *fakeSource, expanded ...string) AppModel {
	t.Helper()
	m := InitialModel(context.Background(), src, "dev-1", expanded)
	msg := m.Init()()
	next, _ := m.Update(msg)
	return next.(AppModel)
}

func press(m AppModel, key tea.KeyMsg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(key)
	return next.(AppModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func visible(m AppModel) []string {
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.node.Href)
	}
	return out
}

func TestInitLoadsTree(t *testing.T) {
	m := loaded(t, newSource())

	assert.False(t, m.Loading)
	assert.NoError(t, m.Err)
	assert.Equal(t, []string{"/light/", "/oic/"}, visible(m))
	assert.Equal(t, "/light/", m.Selected().Href)
}

func TestInitialExpandedHrefs(t *testing.T) {
	m := loaded(t, newSource(), "/oic/")
	assert.Equal(t, []string{"/light/", "/oic/", "/oic/d", "/oic/p"}, visible(m))
	assert.Equal(t, []string{"/oic/"}, m.Expanded())
}

func TestTreeLoadError(t *testing.T) {
	src := newSource()
	src.treeErr = errors.New("hub unavailable")
	m := loaded(t, src)

	require.Error(t, m.Err)
	assert.False(t, m.Loading)
	assert.Contains(t, m.View(), "hub unavailable")
}

func TestExpandCollapseNavigation(t *testing.T) {
	m := loaded(t, newSource())

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, []string{"/light/", "/light/1", "/light/2", "/oic/"}, visible(m))
	assert.Equal(t, []string{"/light/"}, m.Expanded())

	m, _ = press(m, runes("j"))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "/light/2", m.Selected().Href)

	// left on a leaf moves to the parent
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "/light/", m.Selected().Href)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, []string{"/light/", "/oic/"}, visible(m))
	assert.Empty(t, m.Expanded())

	m, _ = press(m, runes("G"))
	assert.Equal(t, "/oic/", m.Selected().Href)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "/oic/", m.Selected().Href)
	m, _ = press(m, runes("g"))
	assert.Equal(t, 0, m.SelectedIdx)
}

func TestToggleAndExpandAll(t *testing.T) {
	m := loaded(t, newSource())

	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Len(t, visible(m), 4)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Len(t, visible(m), 2)

	m, _ = press(m, runes("e"))
	assert.Len(t, visible(m), 6)
	assert.Equal(t, []string{"/light/", "/oic/"}, m.Expanded())

	m, _ = press(m, runes("c"))
	assert.Len(t, visible(m), 2)
}

func TestCursorFollowsNodeOnRebuild(t *testing.T) {
	m := loaded(t, newSource())
	m, _ = press(m, runes("j"))
	require.Equal(t, "/oic/", m.Selected().Href)

	m, _ = press(m, runes("e"))
	assert.Equal(t, "/oic/", m.Selected().Href)
	assert.Equal(t, 3, m.SelectedIdx)
}

func TestFilterShowsMatchesWithAncestors(t *testing.T) {
	m := loaded(t, newSource())

	m, _ = press(m, runes("/"))
	require.True(t, m.InputMode)

	m, _ = press(m, runes("p"))
	assert.Equal(t, []string{"/oic/", "/oic/p"}, visible(m))

	// keys go to the input while filtering
	m, _ = press(m, runes("q"))
	assert.True(t, m.InputMode)
	assert.Empty(t, visible(m))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, []string{"/oic/", "/oic/p"}, visible(m))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.InputMode)
	assert.Equal(t, []string{"/oic/", "/oic/p"}, visible(m))

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, []string{"/light/", "/oic/"}, visible(m))
}

func TestEnterLoadsResource(t *testing.T) {
	src := newSource()
	m := loaded(t, src, "/light/")
	m, _ = press(m, runes("j"))
	require.Equal(t, "/light/1", m.Selected().Href)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Loading content")

	next, _ := m.Update(cmd())
	m = next.(AppModel)
	require.NotNil(t, m.Resource)
	assert.Equal(t, "/light/1", m.Resource.ResourceID.Href)
	assert.Equal(t, []string{"/light/1"}, src.gets)
	assert.Contains(t, m.View(), `"value": true`)
}

func TestStaleResourceIsDropped(t *testing.T) {
	m := loaded(t, newSource(), "/light/")
	m, _ = press(m, runes("j"))
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.Update(MsgResourceReady{Href: "/light/2", Resource: &model.Resource{}})
	m = next.(AppModel)
	assert.Nil(t, m.Resource)
	assert.Equal(t, "/light/1", m.loadingHref)

	// moving away discards the pending load
	m, _ = press(m, runes("j"))
	next, _ = m.Update(MsgResourceReady{Href: "/light/1", Resource: &model.Resource{}})
	m = next.(AppModel)
	assert.Nil(t, m.Resource)
}

func TestEnterOnDirectoryToggles(t *testing.T) {
	m := loaded(t, newSource())
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"/light/"}, m.Expanded())
}

func TestQuit(t *testing.T) {
	m := loaded(t, newSource())
	_, cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestViewRendersPanes(t *testing.T) {
	m := loaded(t, newSource(), "/oic/")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(AppModel)

	out := m.View()
	assert.Contains(t, out, "Resources of dev-1")
	assert.Contains(t, out, "/oic/d")
	assert.Contains(t, out, "Directory with 2 entries")
}
