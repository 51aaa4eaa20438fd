package augment

import "fmt"

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents an OpenAPI document.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument is a generated schema. Document must be JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaInput is what a generator describes: a blueprint's declared fields
// plus the computed properties every record exposes.
type SchemaInput struct {
	Blueprint *Blueprint
	Computed  *ComputedRegistry
}

// SchemaGenerator turns a blueprint into a schema document. Implementations
// must be safe for concurrent use.
type SchemaGenerator interface {
	Generate(input SchemaInput) (SchemaDocument, error)
}

// FieldDescriptor describes one resolvable key.
type FieldDescriptor struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Default  any    `json:"default,omitempty"`
	Computed string `json:"computed,omitempty"`
}

// DefaultSchemaGenerator returns the descriptor generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(input SchemaInput) (SchemaDocument, error) {
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: Descriptors(input),
	}, nil
}

// Descriptors lists declared fields in declaration order followed by the
// computed properties that no field shadows.
func Descriptors(input SchemaInput) []FieldDescriptor {
	descriptors := []FieldDescriptor{}
	declared := map[string]struct{}{}
	for _, field := range input.Blueprint.Fields() {
		declared[field.Handle] = struct{}{}
		descriptor := FieldDescriptor{
			Path:    field.Handle,
			Type:    field.Type.String(),
			Default: field.Default,
		}
		if prop, ok := input.Computed.Lookup(field.Handle); ok {
			descriptor.Computed = prop.Kind.String()
		}
		descriptors = append(descriptors, descriptor)
	}
	for _, name := range input.Computed.Names() {
		if _, ok := declared[name]; ok {
			continue
		}
		prop, _ := input.Computed.Lookup(name)
		descriptors = append(descriptors, FieldDescriptor{
			Path:     name,
			Type:     FieldTypeUnknown.String(),
			Computed: prop.Kind.String(),
		})
	}
	return descriptors
}

// Schema describes the blueprint registered under handle. A nil generator
// uses DefaultSchemaGenerator.
func (r *Resolver) Schema(handle string, generator SchemaGenerator) (SchemaDocument, error) {
	if r.cfg.schemas == nil {
		return SchemaDocument{}, fmt.Errorf("%w: %q: no schema registry configured", ErrBlueprintNotFound, handle)
	}
	blueprint, ok := r.cfg.schemas.Blueprint(handle)
	if !ok || blueprint == nil {
		return SchemaDocument{}, fmt.Errorf("%w: %q", ErrBlueprintNotFound, handle)
	}
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	return generator.Generate(SchemaInput{Blueprint: blueprint, Computed: r.cfg.computed})
}
