package server

import (
	"encoding/json"
	"sort"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/vdom"
)

// Message types.
const (
	MsgReset = "reset" // server: full tree, sent once per connection
	MsgOps   = "ops"   // server: mutations of one commit
	MsgError = "error" // server: a client message was rejected
	MsgEvent = "event" // client: an event fired on a node with listeners
)

// WireOp is a host operation as sent to clients.
type WireOp struct {
	Op     string            `json:"op"`
	Node   int               `json:"node"`
	Parent int               `json:"parent,omitempty"`
	Before int               `json:"before,omitempty"`
	Name   string            `json:"name,omitempty"`
	Value  string            `json:"value,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// WireNode is a host node with its ID, as sent in reset messages.
type WireNode struct {
	ID        int               `json:"id"`
	Kind      string            `json:"kind"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Listeners []string          `json:"listeners,omitempty"`
	Children  []WireNode        `json:"children,omitempty"`
}

// Message is a server-to-client message.
type Message struct {
	Type    string    `json:"type"`
	Seq     uint64    `json:"seq"`
	Ops     []WireOp  `json:"ops,omitempty"`
	Tree    *WireNode `json:"tree,omitempty"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ClientMessage is a client-to-server message.
type ClientMessage struct {
	Type  string `json:"type"`
	Node  int    `json:"node"`
	Event string `json:"event"`
	Value string `json:"value,omitempty"`
}

// DecodeClientMessage parses and validates a client message.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, errors.New("E141").Wrap(err)
	}
	switch {
	case msg.Type != MsgEvent:
		return msg, errors.New("E141").WithDetailf("unknown message type %q", msg.Type)
	case msg.Node <= 0:
		return msg, errors.New("E141").WithDetailf("event targets invalid node %d", msg.Node)
	case msg.Event == "":
		return msg, errors.New("E141").WithDetail("event name is empty")
	}
	return msg, nil
}

// encode marshals a server message. Messages hold only strings and ints.
func encode(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return data
}

// errorMessage builds the reply to a rejected client message.
func errorMessage(err error) Message {
	return Message{Type: MsgError, Code: errors.CodeOf(err), Message: err.Error()}
}

// wireOp converts a recorded host op. Handler values are not sent.
func wireOp(op host.Op) WireOp {
	w := WireOp{
		Op:     string(op.Kind),
		Node:   op.Node,
		Parent: op.Parent,
		Before: op.Before,
		Name:   op.Name,
	}
	if op.Kind == host.OpSetAttr {
		w.Value = vdom.PropToString(op.Value)
	}
	return w
}

// wireTree copies the subtree rooted at n.
func wireTree(n *host.MemNode) WireNode {
	w := WireNode{ID: n.ID, Kind: n.Kind, Attrs: stringAttrs(n.Attrs)}
	for event, handlers := range n.Listeners {
		if len(handlers) > 0 {
			w.Listeners = append(w.Listeners, event)
		}
	}
	sort.Strings(w.Listeners)
	for _, c := range n.Children {
		w.Children = append(w.Children, wireTree(c))
	}
	return w
}

func stringAttrs(attrs map[string]any) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = vdom.PropToString(v)
	}
	return out
}
