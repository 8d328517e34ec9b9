package configs

import "embed"

// ModelDefaults contains shipped default model variant YAML files.
//
//go:embed models/*.yaml
var ModelDefaults embed.FS
