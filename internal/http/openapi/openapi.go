// Package openapi holds the OpenAPI 3 document for the inventory API.
package openapi

import _ "embed"

// ContentType is served with the document.
const ContentType = "application/yaml"

// YAML is the document served at /openapi.yaml.
//
//go:embed openapi.yaml
var YAML []byte
