package forms

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// BuildSchema reflects the form tree contract into a JSON schema
// document. The schema command exports it for client tooling.
func BuildSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	fieldSchema := reflector.ReflectFromType(reflect.TypeOf(Field{}))
	if fieldSchema == nil {
		return nil, fmt.Errorf("failed to reflect field schema")
	}
	fieldSchema.Version = ""
	fieldSchema.Title = "Form Field"
	fieldSchema.Description = "One entry of the rendered parameter form tree."

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Surface Parameters Form",
		Description: "Input list rendered by the surface model parameters page.",
		Type:        "array",
		Items:       fieldSchema,
	}
	return root, nil
}
