// Package configs holds configuration templates embedded at build time.
//
// `notesync config init` writes ProjectConfigTemplate to .notesync.yaml in
// the notes root. Edit the .yaml file in this directory to change it.
package configs

import _ "embed"

// ProjectConfigTemplate is the commented project configuration written by
// `notesync config init`. Every value in it matches the built-in default.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
