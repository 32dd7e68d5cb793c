package host

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/fibertree/pkg/vdom"
)

// booleanAttrs render as a bare attribute name when true.
var booleanAttrs = map[string]bool{
	"checked":  true,
	"disabled": true,
	"hidden":   true,
	"readonly": true,
	"required": true,
	"selected": true,
}

// HTML renders the container's children as HTML.
func (m *Memory) HTML() string {
	var buf bytes.Buffer
	for _, c := range m.root.Children {
		// bytes.Buffer writes never fail
		_ = RenderHTML(&buf, c)
	}
	return buf.String()
}

// RenderHTML writes the subtree rooted at n as HTML. Listeners are shown
// as data-on-<event> markers and every element carries its node ID in
// data-node so a client can address it.
func RenderHTML(w io.Writer, n *MemNode) error {
	if n.Kind == vdom.TextTag {
		_, err := io.WriteString(w, escapeHTML(vdom.PropToString(n.Attrs[vdom.NodeValue])))
		return err
	}
	if n.Kind == ContainerKind {
		for _, c := range n.Children {
			if err := RenderHTML(w, c); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := fmt.Fprintf(w, `<%s data-node="%d"`, n.Kind, n.ID); err != nil {
		return err
	}
	if err := renderAttributes(w, n); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if vdom.IsVoidElement(n.Kind) {
		return nil
	}
	for _, c := range n.Children {
		if err := RenderHTML(w, c); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", n.Kind)
	return err
}

func renderAttributes(w io.Writer, n *MemNode) error {
	keys := make([]string, 0, len(n.Attrs))
	for key := range n.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := n.Attrs[key]
		if booleanAttrs[key] {
			if b, ok := value.(bool); ok {
				if b {
					if _, err := fmt.Fprintf(w, " %s", key); err != nil {
						return err
					}
				}
				continue
			}
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, key, escapeAttr(vdom.PropToString(value))); err != nil {
			return err
		}
	}

	events := make([]string, 0, len(n.Listeners))
	for event := range n.Listeners {
		events = append(events, event)
	}
	sort.Strings(events)
	for _, event := range events {
		if _, err := fmt.Fprintf(w, ` data-on-%s="true"`, event); err != nil {
			return err
		}
	}
	return nil
}

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}

// escapeAttr escapes text for safe inclusion in HTML attribute values,
// including whitespace that could break attribute parsing.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
