package fiber

import (
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// EffectTag is the host mutation a unit needs at commit.
type EffectTag uint8

const (
	EffectNone EffectTag = iota
	EffectPlace
	EffectUpdate
	EffectDelete
)

// String returns the effect name.
func (e EffectTag) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectPlace:
		return "place"
	case EffectUpdate:
		return "update"
	case EffectDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// UnitID addresses a unit inside one tree.
type UnitID int32

const noUnit UnitID = -1

// rootID is the container unit of every tree.
const rootID UnitID = 0

// unit is one node of the work tree. Links are indices into the owning
// tree; alternate indexes the previous tree.
type unit struct {
	vnode *vdom.VNode // nil for the root
	typ   vdom.Type
	props vdom.Props

	// children are the virtual children still to be reconciled. Only the
	// root carries them up front; other units derive them when performed.
	children []*vdom.VNode

	parent  UnitID
	child   UnitID
	sibling UnitID

	alternate UnitID
	host      host.Node
	effect    EffectTag
	hooks     []*cell
}

func (u *unit) isComponent() bool {
	return u.vnode != nil && u.vnode.Kind == vdom.KindComponent
}

// tree is an arena holding every unit of one render cycle. Dropping the
// tree drops the whole cycle.
type tree struct {
	units []*unit
	prev  *tree // committed tree the alternates point into
}

func newTree(prev *tree, container host.Node, children []*vdom.VNode) *tree {
	t := &tree{prev: prev}
	alt := noUnit
	if prev != nil {
		alt = rootID
	}
	t.add(&unit{
		children:  children,
		parent:    noUnit,
		child:     noUnit,
		sibling:   noUnit,
		alternate: alt,
		host:      container,
	})
	return t
}

func (t *tree) add(u *unit) UnitID {
	t.units = append(t.units, u)
	return UnitID(len(t.units) - 1)
}

func (t *tree) at(id UnitID) *unit {
	if t == nil || id < 0 || int(id) >= len(t.units) {
		return nil
	}
	return t.units[id]
}

// alt returns the alternate of u, or nil.
func (t *tree) alt(u *unit) *unit {
	if u.alternate == noUnit {
		return nil
	}
	return t.prev.at(u.alternate)
}

// childrenOf returns the IDs of id's children in sibling order.
func (t *tree) childrenOf(id UnitID) []UnitID {
	var out []UnitID
	for c := t.units[id].child; c != noUnit; c = t.units[c].sibling {
		out = append(out, c)
	}
	return out
}

// next returns the unit after id in depth-first order: its first child,
// else the sibling of id or of its nearest ancestor that has one.
func (t *tree) next(id UnitID) UnitID {
	if c := t.units[id].child; c != noUnit {
		return c
	}
	for cur := id; cur != noUnit; cur = t.units[cur].parent {
		if s := t.units[cur].sibling; s != noUnit {
			return s
		}
	}
	return noUnit
}

// virtualRoot returns the virtual tree the root was rendered with.
func (t *tree) virtualRoot() *vdom.VNode {
	if t == nil || len(t.units[rootID].children) == 0 {
		return nil
	}
	return t.units[rootID].children[0]
}
