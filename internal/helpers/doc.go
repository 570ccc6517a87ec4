// Package helpers holds small conversions shared by the configuration layer and
// the CLI: exit codes, the version placeholder, truthy-string parsing, list
// splitting and choice-width computation.
package helpers
