// Command server runs the object browser backend: a single-session
// websocket service that lets a remote UI page navigate a file/object
// tree and render selected objects into embedded canvases.
package main
