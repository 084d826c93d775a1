// Package configs embeds the commented configuration template written by
// `titlesearch config init` for YAML targets.
package configs

import _ "embed"

// ExampleConfig is a commented YAML file carrying every default value.
//
//go:embed titlesearch.example.yaml
var ExampleConfig string
