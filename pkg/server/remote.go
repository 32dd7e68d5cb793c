package server

import (
	"log/slog"

	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// Remote is a host adapter for the live preview. It keeps the tree in a
// host.Memory and publishes the operations of every commit when the engine
// flushes.
//
// Remote is driven from the loop goroutine and is not safe for concurrent
// use.
type Remote struct {
	*host.Memory

	seq     uint64
	created map[int]map[string]string
	publish func(Message)
	logger  *slog.Logger
}

// NewRemote creates an empty remote host.
func NewRemote() *Remote {
	return &Remote{
		Memory:  host.NewMemory(),
		created: make(map[int]map[string]string),
		logger:  slog.Default().With("component", "remote"),
	}
}

// Seq returns the sequence number of the last published batch.
func (r *Remote) Seq() uint64 {
	return r.seq
}

// OnPublish sets the function receiving op batches.
func (r *Remote) OnPublish(fn func(Message)) {
	r.publish = fn
}

// CreateNode implements host.Adapter. The initial attributes travel with
// the create op.
func (r *Remote) CreateNode(kind string, props vdom.Props) (host.Node, error) {
	n, err := r.Memory.CreateNode(kind, props)
	if err != nil {
		return nil, err
	}
	mn := n.(*host.MemNode)
	r.created[mn.ID] = stringAttrs(mn.Attrs)
	return n, nil
}

// Flush implements host.Flusher. It publishes everything applied since the
// previous flush as one ops message. Nodes created since then that are not
// attached belong to abandoned or failed cycles and are never sent.
func (r *Remote) Flush() error {
	if err := r.Memory.Flush(); err != nil {
		return err
	}
	ops := r.Memory.Ops()
	r.Memory.ResetOps()

	attached := make(map[int]bool)
	r.Root().Find(func(n *host.MemNode) bool {
		attached[n.ID] = true
		return false
	})
	orphans := make(map[int]bool)
	for _, op := range ops {
		if op.Kind == host.OpCreate && !attached[op.Node] {
			orphans[op.Node] = true
		}
	}

	batch := make([]WireOp, 0, len(ops))
	for _, op := range ops {
		if op.Kind == host.OpFlush || orphans[op.Node] {
			continue
		}
		w := wireOp(op)
		if op.Kind == host.OpCreate {
			w.Attrs = r.created[op.Node]
		}
		batch = append(batch, w)
	}
	clear(r.created)
	if len(orphans) > 0 {
		r.logger.Debug("dropped detached nodes", "nodes", len(orphans))
	}
	if len(batch) == 0 {
		return nil
	}

	r.seq++
	r.logger.Debug("publishing ops", "seq", r.seq, "ops", len(batch))
	if r.publish != nil {
		r.publish(Message{Type: MsgOps, Seq: r.seq, Ops: batch})
	}
	return nil
}

// Reset returns the full tree as a reset message.
func (r *Remote) Reset() Message {
	tree := wireTree(r.Root())
	return Message{Type: MsgReset, Seq: r.seq, Tree: &tree}
}

// DispatchEvent delivers a client event to the listeners of a node. It
// reports false when the node is not attached.
func (r *Remote) DispatchEvent(msg ClientMessage) (int, bool) {
	n := r.NodeByID(msg.Node)
	if n == nil {
		return 0, false
	}
	return r.Dispatch(n, msg.Event, msg.Value), true
}
