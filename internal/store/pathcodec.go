package store

import "strings"

// EncodePath turns a note path into a store key by doubling every single
// quote, so the key can sit inside a quoted filter literal.
func EncodePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}

// DecodePath is the exact inverse of EncodePath.
func DecodePath(key string) string {
	return strings.ReplaceAll(key, "''", "'")
}
