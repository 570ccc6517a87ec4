// Package config declares the typed configuration fields of a project and
// resolves each of them from layered sources with precedence: explicit
// overrides > environment variables (process env, then the project .env file) >
// project config file > compiled defaults. Resolved values are bound into one
// group struct per concern and aggregated into a single Settings root that is
// built once at startup and passed explicitly to the rest of the application.
package config
