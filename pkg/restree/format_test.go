package restree

import (
	"testing"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

func TestFormat(t *testing.T) {
	tree := Build([]model.ResourceLink{
		{Href: "/oic/d", ResourceTypes: []string{"oic.wk.d"}, Interfaces: []string{"oic.if.r", "oic.if.baseline"}},
		{Href: "/light", ResourceTypes: []string{"oic.r.switch.binary"}},
	})

	tests := []struct {
		name     string
		f        *Formatter
		expected string
	}{
		{
			name:     "default",
			f:        NewFormatter(),
			expected: "/light  [oic.r.switch.binary]\n/oic/\n  /oic/d  [oic.wk.d]  (oic.if.r, oic.if.baseline)\n",
		},
		{
			name:     "hrefs only",
			f:        &Formatter{IndentWidth: 4},
			expected: "/light\n/oic/\n    /oic/d\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Format(tree); got != tt.expected {
				t.Errorf("Format() =\n%q\nwant\n%q", got, tt.expected)
			}
		})
	}
}
