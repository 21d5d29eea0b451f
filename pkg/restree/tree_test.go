package restree

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

func link(href string, types ...string) model.ResourceLink {
	return model.ResourceLink{
		Href:          href,
		DeviceID:      "dev-1",
		ResourceTypes: types,
		Interfaces:    []string{"oic.if.baseline"},
	}
}

func hrefs(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Href
	}
	return out
}

func TestParseHref(t *testing.T) {
	tests := []struct {
		href string
		want []string
	}{
		{"", nil},
		{"/", []string{}},
		{"/a", []string{"a"}},
		{"/a/b/c", []string{"a", "b", "c"}},
		{"/a//b/", []string{"a", "b"}},
		{"a/b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHref(tt.href))
		})
	}
}

func TestKey(t *testing.T) {
	segs := []string{"a", "b", "c"}
	assert.Equal(t, "/", Key(segs, 0))
	assert.Equal(t, "/a/", Key(segs, 1))
	assert.Equal(t, "/a/b/", Key(segs, 2))
	assert.Equal(t, "/a/b/c/", Key(segs, 3))
	assert.Equal(t, "/a/b/c/", Key(segs, 7))
	assert.Equal(t, KeyOf("/a"), KeyOf("/a/"))
}

func TestBuildEmpty(t *testing.T) {
	for _, in := range [][]model.ResourceLink{nil, {}} {
		got := Build(in)
		require.NotNil(t, got)
		assert.Empty(t, got)

		data, err := json.Marshal(got)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	}
}

func TestBuildSiblingsUnderDirectory(t *testing.T) {
	tree := Build([]model.ResourceLink{link("/a/b"), link("/a/c")})

	require.Len(t, tree, 1)
	dir := tree[0]
	assert.Equal(t, "/a/", dir.Href)
	assert.False(t, dir.Terminal())
	assert.Equal(t, []string{"/a/b", "/a/c"}, hrefs(dir.SubRows))
	for _, n := range dir.SubRows {
		assert.True(t, n.Terminal())
		assert.Equal(t, "dev-1", n.DeviceID)
		assert.Empty(t, n.SubRows)
	}
}

func TestBuildSortsCaseInsensitively(t *testing.T) {
	tree := Build([]model.ResourceLink{link("/b"), link("/a")})
	assert.Equal(t, []string{"/a", "/b"}, hrefs(tree))

	tree = Build([]model.ResourceLink{link("/zeta"), link("/Beta"), link("/alpha"), link("/BETA/x")})
	assert.Equal(t, []string{"/alpha", "/Beta", "/BETA/", "/zeta"}, hrefs(tree))
}

func TestBuildSortsEveryLevel(t *testing.T) {
	tree := Build([]model.ResourceLink{
		link("/x/Delta"), link("/x/charlie"), link("/x/bravo/2"), link("/x/bravo/1"), link("/x/Alpha"),
	})
	require.Len(t, tree, 1)
	assert.Equal(t, []string{"/x/Alpha", "/x/bravo/", "/x/charlie", "/x/Delta"}, hrefs(tree[0].SubRows))
	assert.Equal(t, []string{"/x/bravo/1", "/x/bravo/2"}, hrefs(tree[0].SubRows[1].SubRows))
}

func TestBuildMergesPrefixCollision(t *testing.T) {
	orders := [][]model.ResourceLink{
		{link("/a", "x.a"), link("/a/b", "x.b")},
		{link("/a/b", "x.b"), link("/a", "x.a")},
	}
	for i, in := range orders {
		t.Run(fmt.Sprintf("order%d", i), func(t *testing.T) {
			tree := Build(in)
			require.Len(t, tree, 1)
			n := tree[0]
			assert.True(t, n.Terminal())
			assert.Equal(t, "/a", n.Href)
			assert.Equal(t, []string{"x.a"}, n.ResourceTypes)
			require.Len(t, n.SubRows, 1)
			assert.Equal(t, "/a/b", n.SubRows[0].Href)
			assert.Equal(t, []string{"x.b"}, n.SubRows[0].ResourceTypes)
		})
	}
}

func TestBuildTrailingSlashVariantsMerge(t *testing.T) {
	first := link("/a", "x.a")
	first.Title = "first"
	second := model.ResourceLink{Href: "/a/", ResourceTypes: []string{"x.second"}}

	tree := Build([]model.ResourceLink{first, second})
	require.Len(t, tree, 1)
	n := tree[0]
	assert.Equal(t, "/a/", n.Href)
	assert.Equal(t, []string{"x.second"}, n.ResourceTypes)
	assert.Equal(t, "first", n.Title)
	assert.Equal(t, "dev-1", n.DeviceID)
}

func TestBuildHrefWithoutLeadingSlash(t *testing.T) {
	tree := Build([]model.ResourceLink{link("light")})
	require.Len(t, tree, 1)
	assert.Equal(t, "light", tree[0].Href)
	assert.True(t, tree[0].Terminal())
}

func TestBuildSkipsEmptyHref(t *testing.T) {
	tree := Build([]model.ResourceLink{link(""), link("/"), link("/a")})
	assert.Equal(t, []string{"/a"}, hrefs(tree))
}

func TestBuildPreservesTerminalHrefs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	segs := []string{"a", "B", "c", "oic", "light", "D"}
	seen := map[string]bool{}
	var in []model.ResourceLink
	for len(in) < 60 {
		depth := 1 + rng.Intn(4)
		href := ""
		for i := 0; i < depth; i++ {
			href += "/" + segs[rng.Intn(len(segs))]
		}
		if seen[href] {
			continue
		}
		seen[href] = true
		in = append(in, link(href))
	}

	got := Flatten(Build(in))
	gotHrefs := make([]string, len(got))
	for i, l := range got {
		gotHrefs[i] = l.Href
	}
	want := make([]string, 0, len(in))
	for _, l := range in {
		want = append(want, l.Href)
	}
	sort.Strings(gotHrefs)
	sort.Strings(want)
	assert.Equal(t, want, gotHrefs)
	assert.Equal(t, len(in), Count(Build(in)))
}

func TestBuildIdempotent(t *testing.T) {
	in := []model.ResourceLink{link("/oic/d"), link("/oic/p"), link("/light/1"), link("/light"), link("/Light/2")}
	snapshot := make([]model.ResourceLink, len(in))
	copy(snapshot, in)

	first := Build(in)
	second := Build(in)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, in)

	first[0].Href = "changed"
	assert.NotEqual(t, first[0].Href, Build(in)[0].Href)
}

func TestIndexNodesFresh(t *testing.T) {
	x := NewIndex()
	assert.True(t, x.Insert(link("/a/b")))
	assert.False(t, x.Insert(link("")))

	a := x.Nodes()
	a[0].SubRows[0].ResourceLink.Title = "mutated"
	b := x.Nodes()
	assert.Empty(t, b[0].SubRows[0].Title)
}

func TestBuildDoesNotShareSlicesWithInput(t *testing.T) {
	in := []model.ResourceLink{link("/a", "x.a")}
	x := NewIndex()
	x.Insert(in[0])

	tree := x.Nodes()
	tree[0].ResourceTypes[0] = "mutated"
	tree[0].Interfaces[0] = "mutated"

	assert.Equal(t, []string{"x.a"}, in[0].ResourceTypes)
	assert.Equal(t, []string{"oic.if.baseline"}, in[0].Interfaces)

	again := x.Nodes()
	assert.Equal(t, []string{"x.a"}, again[0].ResourceTypes)
	assert.Equal(t, []string{"oic.if.baseline"}, again[0].Interfaces)

	in[0].ResourceTypes[0] = "changed later"
	assert.Equal(t, []string{"x.a"}, x.Nodes()[0].ResourceTypes)
}

func TestFind(t *testing.T) {
	tree := Build([]model.ResourceLink{link("/oic/d"), link("/oic/p"), link("/light/1/state")})

	n := Find(tree, "/oic/p")
	require.NotNil(t, n)
	assert.Equal(t, "/oic/p", n.Href)

	n = Find(tree, "/light/1")
	require.NotNil(t, n)
	assert.Equal(t, "/light/1/", n.Href)

	n = Find(tree, "/light/1/state/")
	require.NotNil(t, n)
	assert.Equal(t, "/light/1/state", n.Href)

	assert.Nil(t, Find(tree, "/missing"))
	assert.Nil(t, Find(tree, ""))
}

func TestWalkSkipsSubRows(t *testing.T) {
	tree := Build([]model.ResourceLink{link("/a/b"), link("/c")})
	var visited []string
	Walk(tree, func(n *Node, depth int) bool {
		visited = append(visited, fmt.Sprintf("%d:%s", depth, n.Href))
		return n.Href != "/a/"
	})
	assert.Equal(t, []string{"0:/a/", "0:/c"}, visited)
}

func TestNodeJSONShape(t *testing.T) {
	tree := Build([]model.ResourceLink{link("/a/b", "x.b")})
	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, map[string]any{
		"href": "/a/",
		"subRows": []any{
			map[string]any{
				"href":          "/a/b",
				"deviceId":      "dev-1",
				"resourceTypes": []any{"x.b"},
				"interfaces":    []any{"oic.if.baseline"},
			},
		},
	}, raw[0])

	data, err = json.Marshal(Build([]model.ResourceLink{{Href: "/bare"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"href":"/bare"}]`, string(data))
}
