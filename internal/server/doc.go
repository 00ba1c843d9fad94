// Package server assembles the browser backend: the gin router, the
// websocket endpoint the client page connects to, the canvas embed
// routes, and the single browsing session behind them.
package server
