// Package spec embeds the OpenAPI description of the HTTP API.
package spec

import _ "embed"

// OpenAPISpec is the OpenAPI 3.1 document in YAML.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
