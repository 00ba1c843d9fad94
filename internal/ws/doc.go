// Package ws binds the session controller to a websocket transport.
//
// The transport frames binary-safe text messages over one full-duplex
// connection; the session layer never parses framing itself. Exactly one
// remote peer is served at a time: reconnecting replaces the live
// connection handle and the new connection receives a fresh init message
// describing all open canvases.
package ws
