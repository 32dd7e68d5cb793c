// Package server streams a fibertree host tree to browsers.
//
// A Remote is a host adapter that keeps the tree in memory and, on every
// commit flush, publishes the batch of mutations it received as a JSON
// message. The Server fans those batches out to websocket clients through
// a Hub and routes client events back onto the scheduler loop, where they
// reach the listeners registered by the engine.
//
// All engine work happens on the idle.Loop goroutine. HTTP handlers that
// need to read the tree go through Loop.Call.
//
// Routes:
//
//	GET /          page with the current tree and a small client script
//	GET /ws        websocket: reset + ops messages out, event messages in
//	GET /snapshot  JSON tree (or ?format=html)
//	GET /healthz   liveness
//	GET /metrics   Prometheus metrics when a gatherer is configured
package server
