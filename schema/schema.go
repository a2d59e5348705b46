// Package schema exports the forms as OpenAPI 3 component schemas, so
// clients outside the terminal can pre-check input the same way.
//
// The schemas carry the single-field limits of each rule catalogue.
// Cross-field and date-relative rules cannot be expressed in JSON Schema;
// they are named in each property's description, and the fields a
// property re-validates are listed under the x-liveform-revalidates
// extension.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kdsmith18542/liveform/form"
	"github.com/kdsmith18542/liveform/product"
	"github.com/kdsmith18542/liveform/registration"
)

const (
	// OpenAPIVersion is written into exported documents.
	OpenAPIVersion = "3.0.3"
	// RevalidatesExtension lists the fields re-validated when a property
	// changes.
	RevalidatesExtension = "x-liveform-revalidates"
)

// Component names of the exported schemas.
const (
	RegistrationName = "Registration"
	ProductName      = "Product"
)

// Registration returns the registration form schema.
func Registration() *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	s.Title = "Registration"
	s.Properties = openapi3.Schemas{
		registration.FieldUsername: property(openapi3.NewStringSchema().
			WithMinLength(registration.MinUsernameLength).
			WithMaxLength(registration.MaxUsernameLength)),
		registration.FieldPassword: property(openapi3.NewStringSchema().
			WithMinLength(registration.MinPasswordLength)),
		registration.FieldConfirmPassword: property(describe(openapi3.NewStringSchema().
			WithMinLength(1), "must equal password")),
		registration.FieldEmail: property(openapi3.NewStringSchema().
			WithPattern(form.EmailPattern)),
		registration.FieldBirthDate: property(describe(openapi3.NewStringSchema().
			WithFormat("date"), fmt.Sprintf("not in the future and at most %d years ago", registration.MaxAge))),
		registration.FieldAcceptTerms: property(describe(openapi3.NewBoolSchema().
			WithEnum(true), fmt.Sprintf("users under %d must also accept the parental consent statement", registration.AdultAge))),
	}
	s.Required = []string{
		registration.FieldUsername,
		registration.FieldPassword,
		registration.FieldConfirmPassword,
		registration.FieldEmail,
		registration.FieldAcceptTerms,
	}
	annotate(s, registration.Rules())
	return s
}

// Product returns the product form schema.
func Product() *openapi3.Schema {
	maxPrice, _ := product.MaxPrice.Float64()

	categories := make([]interface{}, len(product.Categories))
	for i, c := range product.Categories {
		categories[i] = c
	}

	s := openapi3.NewObjectSchema()
	s.Title = "Product"
	s.Properties = openapi3.Schemas{
		product.FieldName: property(openapi3.NewStringSchema().
			WithMinLength(product.MinNameLength).
			WithMaxLength(product.MaxNameLength)),
		product.FieldPrice: property(openapi3.NewFloat64Schema().
			WithMin(0).
			WithExclusiveMin(true).
			WithMax(maxPrice)),
		product.FieldReleaseDate: property(describe(openapi3.NewStringSchema().
			WithFormat("date"), "at most one year ahead")),
		product.FieldStockLevel: property(openapi3.NewIntegerSchema().
			WithMin(0)),
		product.FieldDescription: property(openapi3.NewStringSchema().
			WithMaxLength(product.MaxDescriptionLength)),
		product.FieldCategory: property(openapi3.NewStringSchema().
			WithEnum(categories...)),
	}
	s.Required = []string{product.FieldName, product.FieldPrice, product.FieldCategory}
	annotate(s, product.Rules())
	return s
}

// Schemas returns every form schema keyed by component name.
func Schemas() openapi3.Schemas {
	return openapi3.Schemas{
		RegistrationName: openapi3.NewSchemaRef("", Registration()),
		ProductName:      openapi3.NewSchemaRef("", Product()),
	}
}

// Lookup returns the schema for a form name as used on the command line
// ("registration" or "product").
func Lookup(formName string) (*openapi3.Schema, error) {
	switch formName {
	case registration.FormName:
		return Registration(), nil
	case product.FormName:
		return Product(), nil
	default:
		return nil, fmt.Errorf("schema: %q: %w", formName, form.ErrUnknownField)
	}
}

type document struct {
	OpenAPI    string     `json:"openapi"`
	Info       info       `json:"info"`
	Paths      struct{}   `json:"paths"`
	Components components `json:"components"`
}

type info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type components struct {
	Schemas openapi3.Schemas `json:"schemas"`
}

// Document renders a minimal OpenAPI document holding the form schemas as
// indented JSON.
func Document(version string) ([]byte, error) {
	doc := document{
		OpenAPI:    OpenAPIVersion,
		Info:       info{Title: "liveform", Version: version},
		Components: components{Schemas: Schemas()},
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal document: %w", err)
	}
	return out, nil
}

// Check validates a decoded JSON value against the schema of formName.
func Check(formName string, value interface{}) error {
	s, err := Lookup(formName)
	if err != nil {
		return err
	}
	return s.VisitJSON(value, openapi3.MultiErrors())
}

func property(s *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", s)
}

func describe(s *openapi3.Schema, description string) *openapi3.Schema {
	s.Description = description
	return s
}

type dependencyGraph interface {
	Fields() []string
	Affected(changed string) []string
}

// annotate records the dependency edges of rules on s's properties.
func annotate(s *openapi3.Schema, rules dependencyGraph) {
	for _, field := range rules.Fields() {
		affected := rules.Affected(field)
		if len(affected) < 2 {
			continue
		}
		ref, ok := s.Properties[field]
		if !ok || ref.Value == nil {
			continue
		}
		deps := append([]string(nil), affected[1:]...)
		sort.Strings(deps)
		if ref.Value.Extensions == nil {
			ref.Value.Extensions = map[string]interface{}{}
		}
		ref.Value.Extensions[RevalidatesExtension] = deps
	}
}
