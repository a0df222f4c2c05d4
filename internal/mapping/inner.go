package mapping

import (
	"fmt"
	"strconv"

	"github.com/ohler55/ojg/oj"
)

// InnerClassInfo carries the structural correction data for one class:
// the InnerClasses rows it should declare and, for local/anonymous classes,
// the enclosing method reference.
type InnerClassInfo struct {
	EnclosingMethod *EnclosingMethodRef
	InnerClasses    []InnerClassRef
}

// EnclosingMethodRef references the method a local class is defined in.
type EnclosingMethodRef struct {
	Owner string
	Name  string
	Desc  string
}

// InnerClassRef is one row destined for an InnerClasses attribute.
type InnerClassRef struct {
	InnerClass string
	OuterClass string
	InnerName  string
	Access     uint16
}

// InnerClassTable maps class names to their structural correction data,
// parsed from the exceptor JSON document.
type InnerClassTable struct {
	info map[string]InnerClassInfo
}

// ParseInnerClassTable decodes the exceptor JSON document.
func ParseInnerClassTable(data []byte) (*InnerClassTable, error) {
	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse exceptor document: %w", err)
	}
	root, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("exceptor document: expected a top-level object")
	}

	t := &InnerClassTable{info: make(map[string]InnerClassInfo, len(root))}
	for className, raw := range root {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		var info InnerClassInfo

		if em, ok := entry["enclosingMethod"].(map[string]any); ok {
			info.EnclosingMethod = &EnclosingMethodRef{
				Owner: str(em, "owner"),
				Name:  str(em, "name"),
				Desc:  str(em, "desc"),
			}
		}
		if rows, ok := entry["innerClasses"].([]any); ok {
			for _, rawRow := range rows {
				row, ok := rawRow.(map[string]any)
				if !ok {
					continue
				}
				info.InnerClasses = append(info.InnerClasses, InnerClassRef{
					InnerClass: str(row, "inner_class"),
					OuterClass: str(row, "outer_class"),
					InnerName:  str(row, "inner_name"),
					Access:     accessFlags(row["access"]),
				})
			}
		}
		t.info[className] = info
	}
	return t, nil
}

// Lookup returns the correction data for a class name.
func (t *InnerClassTable) Lookup(className string) (InnerClassInfo, bool) {
	info, ok := t.info[className]
	return info, ok
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// accessFlags tolerates the two encodings seen in the wild: a hex string
// or a plain JSON number.
func accessFlags(v any) uint16 {
	switch a := v.(type) {
	case string:
		n, err := strconv.ParseUint(a, 16, 16)
		if err != nil {
			return 0
		}
		return uint16(n)
	case int64:
		return uint16(a)
	case float64:
		return uint16(a)
	}
	return 0
}
