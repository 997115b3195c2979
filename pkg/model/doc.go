// Package model defines the draft, option catalogues, validation gate, and
// submission state shared by the controller, the submission client, and the
// renderers. Everything here is a plain value: `Draft.Apply` is a pure field
// transition and `Validate` is a pure gate, so neither needs a UI harness to
// be exercised.
//
// Field names double as the multipart wire names expected by the inference
// service (`sex`, `dx_type`, `localization`, `age`, `image`). Probabilities
// decode into an ordered list so renderers can break ties by the order the
// service emitted them.
package model
