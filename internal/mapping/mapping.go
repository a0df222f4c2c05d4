// Package mapping models identifier mapping tables and their on-disk
// formats. Field and method lookups are always scoped by owner (and, for
// methods, descriptor): equal simple names under different owners are
// distinct entries. A lookup miss means "keep the original identifier",
// never an error.
package mapping

// ClassMapping maps internal class names.
type ClassMapping interface {
	MapClassName(name string) (string, bool)
}

// FieldMapping maps field names scoped by owner.
type FieldMapping interface {
	MapFieldName(owner, name, desc string) (string, bool)
}

// MethodMapping maps method names scoped by owner and descriptor.
type MethodMapping interface {
	MapMethodName(owner, name, desc string) (string, bool)
}

// ParameterMapping maps method parameter names by position (0-based,
// excluding the receiver).
type ParameterMapping interface {
	MapParameterName(owner, method, desc string, position int) (string, bool)
}

// Composite bundles the optional sub-mappings one remap pass consults. Each
// populated field is tried in declaration order per identifier kind; the
// first hit wins. Nil fields are skipped.
type Composite struct {
	Classes    []ClassMapping
	Fields     []FieldMapping
	Methods    []MethodMapping
	Parameters []ParameterMapping
}

// ClassName resolves a class name, returning the original on a miss.
func (c *Composite) ClassName(name string) string {
	for _, m := range c.Classes {
		if mapped, ok := m.MapClassName(name); ok {
			return mapped
		}
	}
	return name
}

// FieldName resolves a field name under its owner, original on a miss.
func (c *Composite) FieldName(owner, name, desc string) string {
	for _, m := range c.Fields {
		if mapped, ok := m.MapFieldName(owner, name, desc); ok {
			return mapped
		}
	}
	return name
}

// MethodName resolves a method name under its owner and descriptor.
func (c *Composite) MethodName(owner, name, desc string) string {
	for _, m := range c.Methods {
		if mapped, ok := m.MapMethodName(owner, name, desc); ok {
			return mapped
		}
	}
	return name
}

// ParameterName resolves a parameter name, "" on a miss.
func (c *Composite) ParameterName(owner, method, desc string, position int) string {
	for _, m := range c.Parameters {
		if mapped, ok := m.MapParameterName(owner, method, desc, position); ok {
			return mapped
		}
	}
	return ""
}
