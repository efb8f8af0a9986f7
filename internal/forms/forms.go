// Package forms describes the browser form trees the controllers
// render. The client walks the field list and composes submitted names
// from the advertised prefixes, one nested field per select option.
package forms

import (
	"strconv"

	"github.com/nsiona/tvb-framework/internal/equations"
	"github.com/nsiona/tvb-framework/internal/neural"
)

// Form field prefixes the client composes submitted names from.
const (
	PrefixModelParam    = "model_param"
	PrefixEquation      = "equation"
	PrefixEquationParam = "equation_param"
)

// Field types the client knows how to render.
const (
	TypeSelect = "select"
	TypeFloat  = "float"
)

// EquationsPrefixes returns the prefixes in composition order.
func EquationsPrefixes() []string {
	return []string{PrefixModelParam, PrefixEquation, PrefixEquationParam}
}

// OptionParamKey names the nested parameter field of a select option,
// the same convention the simulator configuration uses for its keys.
func OptionParamKey(field, option, param string) string {
	return field + "_parameters_option_" + option + "_" + param
}

// Option is one choice of a select field. Attributes are the fields
// revealed when the option is selected.
type Option struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Attributes []Field `json:"attributes,omitempty"`
}

// Field is one entry of a rendered form tree.
type Field struct {
	Name        string   `json:"name" jsonschema:"required"`
	Label       string   `json:"label"`
	Type        string   `json:"type" jsonschema:"required"`
	Default     string   `json:"default,omitempty"`
	Description string   `json:"description,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// SurfaceParametersForm builds the input list of the surface model
// parameters page: the spatializable parameter selector and the
// equation selector with per-equation parameter fields.
func SurfaceParametersForm(model neural.Model) []Field {
	descs := neural.SpatializableParameters(model)
	paramOptions := make([]Option, 0, len(descs))
	for _, desc := range descs {
		paramOptions = append(paramOptions, Option{Name: desc.Name, Value: desc.Name})
	}
	paramField := Field{
		Name:    PrefixModelParam,
		Label:   "Model parameter",
		Type:    TypeSelect,
		Options: paramOptions,
	}
	if len(paramOptions) > 0 {
		paramField.Default = paramOptions[0].Value
	}

	names := equations.Names()
	eqOptions := make([]Option, 0, len(names))
	for _, name := range names {
		eq, err := equations.New(name)
		if err != nil {
			continue
		}
		attrs := make([]Field, 0, len(eq.ParamNames()))
		for _, param := range eq.ParamNames() {
			value, _ := eq.Param(param)
			attrs = append(attrs, Field{
				Name:    OptionParamKey(PrefixEquation, name, param),
				Label:   param,
				Type:    TypeFloat,
				Default: formatFloat(value),
			})
		}
		eqOptions = append(eqOptions, Option{Name: name, Value: name, Attributes: attrs})
	}
	equationField := Field{
		Name:    PrefixEquation,
		Label:   "Equation",
		Type:    TypeSelect,
		Default: equations.DefaultName,
		Options: eqOptions,
	}

	return []Field{paramField, equationField}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
