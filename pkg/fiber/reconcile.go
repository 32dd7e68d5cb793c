package fiber

import (
	stderrors "errors"
	"slices"
	"strings"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// reconcileChildren builds the children of parentID from vnodes, pairing
// them by position with the children of the parent's alternate.
//
// Same type keeps the old host node and tags the new unit EffectUpdate.
// Anything else creates a new unit tagged EffectPlace, and an old unit left
// without a same-typed successor is queued for deletion.
func (s *Scheduler) reconcileChildren(parentID UnitID, vnodes []*vdom.VNode) error {
	t := s.wip
	parent := t.units[parentID]

	oldID := noUnit
	if alt := t.alt(parent); alt != nil {
		oldID = alt.child
	}

	var errs []error
	prevSibling := noUnit
	for i := 0; i < len(vnodes) || oldID != noUnit; i++ {
		var old *unit
		if oldID != noUnit {
			old = t.prev.units[oldID]
		}

		var vn *vdom.VNode
		if i < len(vnodes) {
			vn = vnodes[i]
			if err := vn.Validate(); err != nil {
				errs = append(errs, errors.New("E101").WithDetailf("child %d of %s: %v", i, describe(parent), err))
				vn = nil
			}
		}

		newID := noUnit
		switch {
		case old != nil && vn != nil && old.typ == vn.Type():
			newID = t.add(&unit{
				vnode:     vn,
				typ:       old.typ,
				props:     vn.Props,
				parent:    parentID,
				child:     noUnit,
				sibling:   noUnit,
				alternate: oldID,
				host:      old.host,
				effect:    EffectUpdate,
			})

		case vn != nil:
			newID = t.add(&unit{
				vnode:     vn,
				typ:       vn.Type(),
				props:     vn.Props,
				parent:    parentID,
				child:     noUnit,
				sibling:   noUnit,
				alternate: noUnit,
				effect:    EffectPlace,
			})
			if old != nil {
				s.deletions = append(s.deletions, oldID)
			}

		case old != nil:
			s.deletions = append(s.deletions, oldID)
		}

		if newID != noUnit {
			if prevSibling == noUnit {
				parent.child = newID
			} else {
				t.units[prevSibling].sibling = newID
			}
			prevSibling = newID
		}
		if old != nil {
			oldID = old.sibling
		}
	}
	return stderrors.Join(errs...)
}

func describe(u *unit) string {
	if u.vnode == nil {
		return "root"
	}
	return u.typ.String()
}

// path names the units from the root down to id, dropping package paths
// from component names.
func (s *Scheduler) path(id UnitID) []string {
	var names []string
	for u := s.wip.at(id); u != nil; u = s.wip.at(u.parent) {
		name := describe(u)
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		names = append(names, name)
	}
	slices.Reverse(names)
	return names
}
