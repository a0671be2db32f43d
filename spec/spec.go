// Package spec embeds the OpenAPI description of the Wanderlust API, served by
// the handler package at GET /openapi.yaml.
package spec

import _ "embed"

// OpenAPI is the raw openapi.yaml, embedded at compile time.
//
//go:embed openapi.yaml
var OpenAPI []byte
