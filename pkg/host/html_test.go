package host

import (
	"testing"

	"github.com/vango-dev/fibertree/pkg/vdom"
)

func TestHTMLEscapingAndBooleans(t *testing.T) {
	m := NewMemory()
	in, _ := m.CreateNode("input", vdom.Props{"value": `a"b`, "disabled": true, "checked": false})
	p, _ := m.CreateNode("p", nil)
	txt, _ := m.CreateNode(vdom.TextTag, vdom.Props{vdom.NodeValue: "<b>&"})
	m.AddListener(p, "click", func() {})
	m.InsertNode(m.Root(), in)
	m.InsertNode(m.Root(), p)
	m.InsertNode(p, txt)

	want := `<input data-node="1" disabled value="a&quot;b">` +
		`<p data-node="2" data-on-click="true">&lt;b&gt;&amp;</p>`
	if got := m.HTML(); got != want {
		t.Errorf("HTML() =\n%s\nwant\n%s", got, want)
	}
}

func TestEscapeAttrWhitespace(t *testing.T) {
	if got := escapeAttr("a\nb\tc"); got != "a&#10;b&#9;c" {
		t.Errorf("escapeAttr() = %q", got)
	}
}
