package store

import _ "embed"

// Schema is the aggregate DDL, embedded so integration tests and local
// bootstrap can apply it without external migration tooling.
//
//go:embed schema.sql
var Schema string
