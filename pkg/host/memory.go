package host

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/fibertree/pkg/vdom"
)

// ContainerKind is the kind of the root node created by NewMemory.
const ContainerKind = "#container"

var (
	// ErrUnknownNode is returned when a handle is not a *MemNode of this Memory.
	ErrUnknownNode = errors.New("host: unknown node")

	// ErrNotChild is returned by RemoveNode when child is not attached to parent.
	ErrNotChild = errors.New("host: node is not a child of parent")
)

// OpKind identifies a recorded host operation.
type OpKind string

const (
	OpCreate         OpKind = "create"
	OpSetAttr        OpKind = "setAttr"
	OpRemoveAttr     OpKind = "removeAttr"
	OpAddListener    OpKind = "addListener"
	OpRemoveListener OpKind = "removeListener"
	OpInsert         OpKind = "insert"
	OpRemove         OpKind = "remove"
	OpFlush          OpKind = "flush"
)

// Op is one operation applied to a Memory host.
type Op struct {
	Kind   OpKind
	Node   int    // Target node ID
	Parent int    // Parent node ID for insert/remove
	Before int    // Sibling ID for an ordered insert, 0 when appending
	Name   string // Attribute name, event name, or node kind for create
	Value  any    // Attribute value or handler
}

// String returns a compact form of the op, handy in test failures.
func (o Op) String() string {
	switch o.Kind {
	case OpCreate:
		return fmt.Sprintf("create #%d %s", o.Node, o.Name)
	case OpSetAttr:
		return fmt.Sprintf("setAttr #%d %s=%s", o.Node, o.Name, vdom.PropToString(o.Value))
	case OpRemoveAttr:
		return fmt.Sprintf("removeAttr #%d %s", o.Node, o.Name)
	case OpAddListener:
		return fmt.Sprintf("addListener #%d %s", o.Node, o.Name)
	case OpRemoveListener:
		return fmt.Sprintf("removeListener #%d %s", o.Node, o.Name)
	case OpInsert:
		if o.Before != 0 {
			return fmt.Sprintf("insert #%d into #%d before #%d", o.Node, o.Parent, o.Before)
		}
		return fmt.Sprintf("insert #%d into #%d", o.Node, o.Parent)
	case OpRemove:
		return fmt.Sprintf("remove #%d from #%d", o.Node, o.Parent)
	case OpFlush:
		return "flush"
	default:
		return string(o.Kind)
	}
}

// MemNode is a node of the in-memory host tree.
type MemNode struct {
	ID        int
	Kind      string
	Attrs     map[string]any
	Listeners map[string][]any
	Children  []*MemNode
	Parent    *MemNode
}

// Memory is an in-memory Adapter. It is not safe for concurrent use; the
// engine drives it from a single goroutine.
type Memory struct {
	nextID  int
	root    *MemNode
	ops     []Op
	flushes int
	fail    func(Op) error
}

// NewMemory creates a Memory host with an empty container root.
func NewMemory() *Memory {
	m := &Memory{}
	m.root = m.newNode(ContainerKind)
	return m
}

func (m *Memory) newNode(kind string) *MemNode {
	n := &MemNode{
		ID:        m.nextID,
		Kind:      kind,
		Attrs:     make(map[string]any),
		Listeners: make(map[string][]any),
	}
	m.nextID++
	return n
}

// Root returns the container node.
func (m *Memory) Root() *MemNode {
	return m.root
}

// Ops returns a copy of the recorded operations.
func (m *Memory) Ops() []Op {
	out := make([]Op, len(m.ops))
	copy(out, m.ops)
	return out
}

// ResetOps clears the operation log.
func (m *Memory) ResetOps() {
	m.ops = m.ops[:0]
}

// Flushes returns how many times Flush was called.
func (m *Memory) Flushes() int {
	return m.flushes
}

// FailOn installs a hook consulted before every operation. A non-nil error
// aborts the operation and is returned to the engine.
func (m *Memory) FailOn(fn func(Op) error) {
	m.fail = fn
}

func (m *Memory) apply(op Op) error {
	if m.fail != nil {
		if err := m.fail(op); err != nil {
			return err
		}
	}
	m.ops = append(m.ops, op)
	return nil
}

func asMem(n Node) (*MemNode, error) {
	mn, ok := n.(*MemNode)
	if !ok || mn == nil {
		return nil, fmt.Errorf("%w: %T", ErrUnknownNode, n)
	}
	return mn, nil
}

// CreateNode implements Adapter.
func (m *Memory) CreateNode(kind string, props vdom.Props) (Node, error) {
	if kind == "" {
		return nil, fmt.Errorf("host: empty node kind")
	}
	if err := m.apply(Op{Kind: OpCreate, Node: m.nextID, Name: kind}); err != nil {
		return nil, err
	}
	n := m.newNode(kind)
	for key, value := range props {
		if vdom.IsEventHandler(key) {
			continue
		}
		n.Attrs[key] = value
	}
	return n, nil
}

// SetAttribute implements Adapter.
func (m *Memory) SetAttribute(n Node, name string, value any) error {
	mn, err := asMem(n)
	if err != nil {
		return err
	}
	if err := m.apply(Op{Kind: OpSetAttr, Node: mn.ID, Name: name, Value: value}); err != nil {
		return err
	}
	mn.Attrs[name] = value
	return nil
}

// RemoveAttribute implements Adapter.
func (m *Memory) RemoveAttribute(n Node, name string) error {
	mn, err := asMem(n)
	if err != nil {
		return err
	}
	if err := m.apply(Op{Kind: OpRemoveAttr, Node: mn.ID, Name: name}); err != nil {
		return err
	}
	delete(mn.Attrs, name)
	return nil
}

// AddListener implements Adapter.
func (m *Memory) AddListener(n Node, event string, handler any) error {
	mn, err := asMem(n)
	if err != nil {
		return err
	}
	if err := m.apply(Op{Kind: OpAddListener, Node: mn.ID, Name: event, Value: handler}); err != nil {
		return err
	}
	mn.Listeners[event] = append(mn.Listeners[event], handler)
	return nil
}

// RemoveListener implements Adapter. Removing a handler that is not
// attached is a no-op, matching DOM semantics.
func (m *Memory) RemoveListener(n Node, event string, handler any) error {
	mn, err := asMem(n)
	if err != nil {
		return err
	}
	if err := m.apply(Op{Kind: OpRemoveListener, Node: mn.ID, Name: event, Value: handler}); err != nil {
		return err
	}
	handlers := mn.Listeners[event]
	for i, h := range handlers {
		if SameHandler(h, handler) {
			handlers = append(handlers[:i], handlers[i+1:]...)
			break
		}
	}
	if len(handlers) == 0 {
		delete(mn.Listeners, event)
	} else {
		mn.Listeners[event] = handlers
	}
	return nil
}

// InsertNode implements Adapter. A child that is already attached elsewhere
// is moved.
func (m *Memory) InsertNode(parent, child Node) error {
	p, err := asMem(parent)
	if err != nil {
		return err
	}
	c, err := asMem(child)
	if err != nil {
		return err
	}
	if err := m.apply(Op{Kind: OpInsert, Node: c.ID, Parent: p.ID}); err != nil {
		return err
	}
	if c.Parent != nil {
		c.Parent.detach(c)
	}
	c.Parent = p
	p.Children = append(p.Children, c)
	return nil
}

// InsertBefore implements Inserter. before must be a child of parent.
func (m *Memory) InsertBefore(parent, child, before Node) error {
	p, err := asMem(parent)
	if err != nil {
		return err
	}
	c, err := asMem(child)
	if err != nil {
		return err
	}
	b, err := asMem(before)
	if err != nil {
		return err
	}
	if b.Parent != p || b == c {
		return fmt.Errorf("%w: #%d is not under #%d", ErrNotChild, b.ID, p.ID)
	}
	if err := m.apply(Op{Kind: OpInsert, Node: c.ID, Parent: p.ID, Before: b.ID}); err != nil {
		return err
	}
	if c.Parent != nil {
		c.Parent.detach(c)
	}
	c.Parent = p
	for i, x := range p.Children {
		if x == b {
			p.Children = append(p.Children[:i], append([]*MemNode{c}, p.Children[i:]...)...)
			break
		}
	}
	return nil
}

// RemoveNode implements Adapter.
func (m *Memory) RemoveNode(parent, child Node) error {
	p, err := asMem(parent)
	if err != nil {
		return err
	}
	c, err := asMem(child)
	if err != nil {
		return err
	}
	if c.Parent != p {
		return fmt.Errorf("%w: #%d from #%d", ErrNotChild, c.ID, p.ID)
	}
	if err := m.apply(Op{Kind: OpRemove, Node: c.ID, Parent: p.ID}); err != nil {
		return err
	}
	p.detach(c)
	c.Parent = nil
	return nil
}

// Flush implements Flusher.
func (m *Memory) Flush() error {
	if err := m.apply(Op{Kind: OpFlush}); err != nil {
		return err
	}
	m.flushes++
	return nil
}

// Dispatch delivers an event to the listeners of n and returns how many
// handlers ran.
func (m *Memory) Dispatch(n *MemNode, event string, value string) int {
	ev := Event{Type: event, Target: n, Value: value}
	// Copy first: a handler may trigger a synchronous commit that swaps listeners.
	handlers := append([]any(nil), n.Listeners[event]...)
	called := 0
	for _, h := range handlers {
		if Invoke(h, ev) {
			called++
		}
	}
	return called
}

// NodeByID finds a node attached under the root by ID.
func (m *Memory) NodeByID(id int) *MemNode {
	return m.root.Find(func(n *MemNode) bool { return n.ID == id })
}

func (n *MemNode) detach(child *MemNode) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// Find returns the first node in depth-first order matching fn.
func (n *MemNode) Find(fn func(*MemNode) bool) *MemNode {
	if fn(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(fn); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in depth-first order matching fn.
func (n *MemNode) FindAll(fn func(*MemNode) bool) []*MemNode {
	var out []*MemNode
	var walk func(*MemNode)
	walk = func(x *MemNode) {
		if fn(x) {
			out = append(out, x)
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// ByAttr returns the first node whose attribute name equals value.
func (n *MemNode) ByAttr(name, value string) *MemNode {
	return n.Find(func(x *MemNode) bool {
		v, ok := x.Attrs[name]
		return ok && vdom.PropToString(v) == value
	})
}

// TextContent concatenates the text of all descendant text nodes.
func (n *MemNode) TextContent() string {
	var b strings.Builder
	for _, t := range n.FindAll(func(x *MemNode) bool { return x.Kind == vdom.TextTag }) {
		b.WriteString(vdom.PropToString(t.Attrs[vdom.NodeValue]))
	}
	return b.String()
}

// Snapshot is a comparable, serialisable copy of a host subtree.
type Snapshot struct {
	Kind      string            `json:"kind"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Listeners []string          `json:"listeners,omitempty"`
	Children  []Snapshot        `json:"children,omitempty"`
}

// Snapshot copies the subtree rooted at n. Listener handlers are reduced
// to their event names.
func (n *MemNode) Snapshot() Snapshot {
	s := Snapshot{Kind: n.Kind}
	if len(n.Attrs) > 0 {
		s.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			s.Attrs[k] = vdom.PropToString(v)
		}
	}
	for event, handlers := range n.Listeners {
		for range handlers {
			s.Listeners = append(s.Listeners, event)
		}
	}
	sort.Strings(s.Listeners)
	for _, c := range n.Children {
		s.Children = append(s.Children, c.Snapshot())
	}
	return s
}
