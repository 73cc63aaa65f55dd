// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL for the documents table backing the document store.
//
//go:embed migrations/001_schema.sql
var Schema string
