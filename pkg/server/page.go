package server

import (
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="fibertree-root" data-node="0">{{.Body}}</div>
<script src="/client.js"></script>
</body>
</html>
`))

type pageData struct {
	Title string
	Body  template.HTML
}

// renderPage writes the page shell around body, which is trusted markup
// produced by host.RenderHTML.
func renderPage(w io.Writer, title, body string) error {
	return pageTemplate.Execute(w, pageData{Title: title, Body: template.HTML(body)})
}

// clientScript mirrors the host tree in the browser. It rebuilds the tree
// from reset messages, applies ops in order, and reports events for nodes
// that have listeners attached.
const clientScript = `(function () {
  var root = document.getElementById("fibertree-root");
  var nodes = new Map();
  var counts = new Map();
  var bools = new Set(["checked", "disabled", "hidden", "readonly", "required", "selected"]);
  var ws;

  function setAttr(el, k, v) {
    if (el.nodeType === 3) { el.nodeValue = v; return; }
    if (bools.has(k)) { el[k] = v === "true"; if (v !== "true") { el.removeAttribute(k); return; } }
    if (k === "value") { el.value = v; }
    el.setAttribute(k, v);
  }

  function build(id, kind, attrs) {
    var el;
    attrs = attrs || {};
    if (kind === "#text") {
      el = document.createTextNode(attrs.nodeValue || "");
    } else {
      el = document.createElement(kind);
      Object.keys(attrs).forEach(function (k) { setAttr(el, k, attrs[k]); });
    }
    nodes.set(id, el);
    return el;
  }

  function tree(n) {
    var el = n.id === 0 ? root : build(n.id, n.kind, n.attrs);
    if (n.id === 0) { nodes.set(0, root); }
    (n.listeners || []).forEach(function (ev) { listen(n.id, ev, 1); });
    (n.children || []).forEach(function (c) { el.appendChild(tree(c)); });
    return el;
  }

  function listen(id, ev, delta) {
    var el = nodes.get(id);
    if (!el) { return; }
    var c = counts.get(id);
    if (!c) { c = {}; counts.set(id, c); }
    if (c[ev] === undefined) {
      c[ev] = 0;
      el.addEventListener(ev, function (e) {
        if (c[ev] > 0) { send(id, ev, e); }
      });
    }
    c[ev] += delta;
  }

  function send(id, ev, e) {
    if (ev === "submit") { e.preventDefault(); }
    var value = e.target && e.target.value !== undefined ? String(e.target.value) : "";
    ws.send(JSON.stringify({ type: "event", node: id, event: ev, value: value }));
  }

  function apply(op) {
    var el = nodes.get(op.node);
    switch (op.op) {
    case "create": build(op.node, op.name, op.attrs); break;
    case "setAttr": if (el) { setAttr(el, op.name, op.value || ""); } break;
    case "removeAttr": if (el && el.nodeType === 1) { el.removeAttribute(op.name); } break;
    case "addListener": listen(op.node, op.name, 1); break;
    case "removeListener": listen(op.node, op.name, -1); break;
    case "insert":
      var parent = nodes.get(op.parent);
      if (parent && el) { parent.insertBefore(el, op.before ? nodes.get(op.before) || null : null); }
      break;
    case "remove": if (el && el.parentNode) { el.parentNode.removeChild(el); } break;
    }
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    ws = new WebSocket(proto + "//" + location.host + "/ws");
    ws.onmessage = function (m) {
      var msg = JSON.parse(m.data);
      if (msg.type === "reset") {
        root.textContent = "";
        nodes.clear();
        counts.clear();
        tree(msg.tree);
      } else if (msg.type === "ops") {
        msg.ops.forEach(apply);
      } else if (msg.type === "error") {
        console.warn(msg.code, msg.message);
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }

  connect();
})();
`
