package ws

import "errors"

// errStaleConnection is returned when a send targets a connection that
// was replaced or already closed.
var errStaleConnection = errors.New("connection no longer live")
