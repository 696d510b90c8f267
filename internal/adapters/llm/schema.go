package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

// EnvelopeSchema returns the JSON schema of entities.ResponseEnvelope.
func EnvelopeSchema() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&entities.ResponseEnvelope{})

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	// Models echo "$schema" and "$id" back as fields; keep only the shape.
	delete(m, "$schema")
	delete(m, "$id")
	return m
}

// EnvelopeSchemaJSON is EnvelopeSchema rendered for embedding in a prompt.
func EnvelopeSchemaJSON() string {
	b, err := json.MarshalIndent(EnvelopeSchema(), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}
