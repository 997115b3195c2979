package contract

import _ "embed"

//go:embed predict.openapi.yaml
var embeddedDocument []byte

// Document returns the embedded OpenAPI description.
func Document() []byte {
	out := make([]byte, len(embeddedDocument))
	copy(out, embeddedDocument)
	return out
}
