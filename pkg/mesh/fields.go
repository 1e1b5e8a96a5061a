package mesh

import (
	"github.com/pkg/errors"
)

// AddExtraField stores an arbitrary value under name, replacing any previous
// value.
func (m *Mesh) AddExtraField(name string, v any) {
	if m.fields == nil {
		m.fields = make(map[string]any)
	}
	m.fields[name] = v
}

// HasExtraField reports whether a value was stored under name.
func (m *Mesh) HasExtraField(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// RemoveExtraField deletes the value stored under name.
func (m *Mesh) RemoveExtraField(name string) {
	delete(m.fields, name)
}

// ExtraFieldNames lists the stored field names in no particular order.
func (m *Mesh) ExtraFieldNames() []string {
	names := make([]string, 0, len(m.fields))
	for k := range m.fields {
		names = append(names, k)
	}
	return names
}

// GetExtraField returns the value stored under name as T. It fails with
// ErrFieldNotFound for an unknown name and ErrFieldType when the stored value
// is not a T.
func GetExtraField[T any](m *Mesh, name string) (T, error) {
	var zero T
	v, ok := m.fields[name]
	if !ok {
		return zero, errors.Wrapf(ErrFieldNotFound, "field %q", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.Wrapf(ErrFieldType, "field %q holds %T, want %T", name, v, zero)
	}
	return t, nil
}
