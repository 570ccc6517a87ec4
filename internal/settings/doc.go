// Package settings materializes a config.Settings root into the
// framework-shaped settings the application server consumes: database
// connections, storage backends, installed components, middleware order,
// template engine options and the content security policy. Materialize is
// pure: the media location of filesystem storage is returned as an explicit
// field rather than written to shared state.
package settings
