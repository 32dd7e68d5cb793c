package fiber

import (
	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// commit applies the work-in-progress tree's effects to the host in one
// pass: pending deletions first, then placements and updates in
// depth-first order. The first adapter error stops the pass.
func (s *Scheduler) commit(c *Cycle) error {
	t := s.wip
	for _, id := range s.deletions {
		if err := s.commitDeletion(t.prev, id); err != nil {
			return err
		}
		c.stats.Deleted++
	}

	for id := t.units[rootID].child; id != noUnit; id = t.next(id) {
		if err := s.commitUnit(t, id, c); err != nil {
			return err
		}
	}

	if f, ok := s.adapter.(host.Flusher); ok {
		if err := f.Flush(); err != nil {
			return errors.New("E111").WithDetail("flush").Wrap(err)
		}
	}
	return nil
}

func (s *Scheduler) commitUnit(t *tree, id UnitID, c *Cycle) error {
	u := t.units[id]
	switch u.effect {
	case EffectPlace:
		c.stats.Placed++
		if u.host == nil {
			return nil
		}
		parent := hostParent(t, id)
		if before := s.anchor(t, id); before != nil {
			if ins, ok := s.adapter.(host.Inserter); ok {
				if err := ins.InsertBefore(parent, u.host, before); err != nil {
					return errors.New("E111").WithDetail("insert").Wrap(err)
				}
				return nil
			}
		}
		if err := s.adapter.InsertNode(parent, u.host); err != nil {
			return errors.New("E111").WithDetail("insert").Wrap(err)
		}

	case EffectUpdate:
		c.stats.Updated++
		if u.host == nil {
			return nil
		}
		var prev vdom.Props
		if alt := t.alt(u); alt != nil {
			prev = alt.props
		}
		return s.commitProps(u.host, prev, u.props)
	}
	return nil
}

// commitProps moves a retained host node from prev to next props. Names
// gone from next are removed, changed or new ones are set. Handler-shaped
// names go through the listener calls; a changed handler is detached
// before its replacement is attached.
func (s *Scheduler) commitProps(n host.Node, prev, next vdom.Props) error {
	for _, key := range prev.Keys() {
		if _, ok := next[key]; ok {
			continue
		}
		if vdom.IsEventHandler(key) {
			if err := s.adapter.RemoveListener(n, vdom.EventName(key), prev[key]); err != nil {
				return errors.New("E111").WithDetail("remove listener " + key).Wrap(err)
			}
			continue
		}
		if err := s.adapter.RemoveAttribute(n, key); err != nil {
			return errors.New("E111").WithDetail("remove attribute " + key).Wrap(err)
		}
	}

	for _, key := range next.Keys() {
		value := next[key]
		old, had := prev[key]
		if had && vdom.ValuesEqual(old, value) {
			continue
		}
		if vdom.IsEventHandler(key) {
			event := vdom.EventName(key)
			if had {
				if err := s.adapter.RemoveListener(n, event, old); err != nil {
					return errors.New("E111").WithDetail("remove listener " + key).Wrap(err)
				}
			}
			if err := s.adapter.AddListener(n, event, value); err != nil {
				return errors.New("E111").WithDetail("add listener " + key).Wrap(err)
			}
			continue
		}
		if err := s.adapter.SetAttribute(n, key, value); err != nil {
			return errors.New("E111").WithDetail("set attribute " + key).Wrap(err)
		}
	}
	return nil
}

// commitDeletion removes the host nodes of a unit of the previous tree.
// A component owns no node itself, so its nearest host descendants go.
func (s *Scheduler) commitDeletion(t *tree, id UnitID) error {
	parent := hostParent(t, id)
	for _, n := range hostRoots(t, id) {
		if err := s.adapter.RemoveNode(parent, n); err != nil {
			return errors.New("E111").WithDetail("remove").Wrap(err)
		}
	}
	return nil
}

// hostParent returns the host node of the nearest ancestor that has one.
// The root always holds the container.
func hostParent(t *tree, id UnitID) host.Node {
	for p := t.units[id].parent; p != noUnit; p = t.units[p].parent {
		if n := t.units[p].host; n != nil {
			return n
		}
	}
	return nil
}

// hostRoots returns the topmost host nodes in the subtree of id.
func hostRoots(t *tree, id UnitID) []host.Node {
	u := t.units[id]
	if u.host != nil {
		return []host.Node{u.host}
	}
	var out []host.Node
	for c := u.child; c != noUnit; c = t.units[c].sibling {
		out = append(out, hostRoots(t, c)...)
	}
	return out
}

// anchor finds the already attached host node that should follow the
// node being placed at id, looking through later siblings and, across
// component boundaries, the later siblings of ancestors up to the host
// parent.
func (s *Scheduler) anchor(t *tree, id UnitID) host.Node {
	for cur := id; cur != noUnit; {
		for sib := t.units[cur].sibling; sib != noUnit; sib = t.units[sib].sibling {
			if n := attachedHost(t, sib); n != nil {
				return n
			}
		}
		p := t.units[cur].parent
		if p == noUnit || t.units[p].host != nil {
			return nil
		}
		cur = p
	}
	return nil
}

// attachedHost returns the first host node in id's subtree that is
// already attached. Units being placed in this commit are not attached yet.
func attachedHost(t *tree, id UnitID) host.Node {
	u := t.units[id]
	if u.effect == EffectPlace {
		return nil
	}
	if u.host != nil {
		return u.host
	}
	for c := u.child; c != noUnit; c = t.units[c].sibling {
		if n := attachedHost(t, c); n != nil {
			return n
		}
	}
	return nil
}
