package vdom

import "testing"

func TestText(t *testing.T) {
	n := Textf("%d items", 3)
	if n.Kind != KindText {
		t.Fatalf("Kind = %v, want Text", n.Kind)
	}
	if got := PropToString(n.Props[NodeValue]); got != "3 items" {
		t.Errorf("text = %q", got)
	}
	if len(n.Props) != 1 {
		t.Errorf("text node should carry only %s, got %v", NodeValue, n.Props)
	}
}

func TestComp(t *testing.T) {
	n := Comp(testComponentA, nil)
	if n.Kind != KindComponent || n.Comp == nil {
		t.Fatalf("Comp() = %+v", n)
	}
	if n.Props == nil {
		t.Error("Comp() should default props to an empty map")
	}
}

func TestIf(t *testing.T) {
	a := Div()
	if If(true, a) != a || If(false, a) != nil {
		t.Error("If")
	}
}

func TestRange(t *testing.T) {
	nodes := Range([]string{"a", "", "c"}, func(s string, i int) *VNode {
		if s == "" {
			return nil
		}
		return Li(Text(s))
	})
	if len(nodes) != 2 {
		t.Errorf("Range() len = %d, want 2", len(nodes))
	}
}
