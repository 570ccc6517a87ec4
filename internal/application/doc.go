// Package application wires the materialized settings into a running server.
// It selects the storage backend, builds the page renderer and handlers,
// mounts the installed components, assembles the middleware chain in the
// configured order and creates the HTTP server, keeping the main package
// focused on CLI parsing and orchestration.
package application
