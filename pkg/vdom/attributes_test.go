package vdom

import "testing"

func TestAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attr  Attr
		key   string
		value any
	}{
		{"ID", ID("main"), "id", "main"},
		{"Class single", Class("card"), "class", "card"},
		{"Class multiple", Class("card", "active"), "class", "card active"},
		{"StyleAttr", StyleAttr("color: red"), "style", "color: red"},
		{"Data", Data("id", "123"), "data-id", "123"},
		{"TitleAttr", TitleAttr("Tooltip"), "title", "Tooltip"},
		{"Name", Name("email"), "name", "email"},
		{"Value", Value("x"), "value", "x"},
		{"Type_", Type_("checkbox"), "type", "checkbox"},
		{"Placeholder", Placeholder("Search"), "placeholder", "Search"},
		{"Disabled", Disabled(true), "disabled", true},
		{"Checked false", Checked(false), "checked", false},
		{"For", For("email"), "for", "email"},
		{"Href", Href("/"), "href", "/"},
		{"Target", Target("_blank"), "target", "_blank"},
		{"Role", Role("button"), "role", "button"},
		{"AriaLabel", AriaLabel("Close"), "aria-label", "Close"},
		{"AriaHidden", AriaHidden(true), "aria-hidden", true},
		{"Prop", Prop("count", 3), "count", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.attr.Key, tt.key)
			}
			if tt.attr.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.attr.Value, tt.value)
			}
		})
	}
}

func TestAttrIsEmpty(t *testing.T) {
	if !(Attr{}).IsEmpty() {
		t.Error("zero Attr should be empty")
	}
	if ID("x").IsEmpty() {
		t.Error("ID attr should not be empty")
	}
	if n := Div(Attr{}, []Attr{{}, ID("x")}); len(n.Props) != 1 {
		t.Errorf("empty attrs should be skipped, props = %v", n.Props)
	}
}
