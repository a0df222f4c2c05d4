package remap

import (
	"github.com/reforge-tools/reforge/internal/classfile"
)

// DebugStrip removes compiler debug metadata. Each flag enables one
// category; the rename chain runs it with SourceFile and
// SourceDebugExtension enabled and keeps line numbers and variable tables,
// which the later passes and the decompiler still want.
type DebugStrip struct {
	SourceFile           bool
	SourceDebugExtension bool
	LineNumbers          bool
	LocalVariables       bool
}

// Name implements Transformer.
func (t *DebugStrip) Name() string { return "debug-strip" }

// Transform implements Transformer.
func (t *DebugStrip) Transform(cf *classfile.ClassFile) error {
	cf.Attrs = filterAttrs(cf.Pool, cf.Attrs, func(name string) bool {
		return (t.SourceFile && name == classfile.AttrSourceFile) ||
			(t.SourceDebugExtension && name == classfile.AttrSourceDebugExtension)
	})

	if !t.LineNumbers && !t.LocalVariables {
		return nil
	}
	for mi := range cf.Methods {
		m := &cf.Methods[mi]
		for ai := range m.Attrs {
			if cf.Pool.Utf8(m.Attrs[ai].NameIndex) != classfile.AttrCode {
				continue
			}
			code, err := classfile.ParseCode(m.Attrs[ai].Data)
			if err != nil {
				return err
			}
			code.Attrs = filterAttrs(cf.Pool, code.Attrs, func(name string) bool {
				return (t.LineNumbers && name == classfile.AttrLineNumberTable) ||
					(t.LocalVariables && (name == classfile.AttrLocalVariableTable ||
						name == classfile.AttrLocalVariableTypeTable))
			})
			m.Attrs[ai].Data = code.Bytes()
		}
	}
	return nil
}

func filterAttrs(pool *classfile.ConstPool, attrs []classfile.Attribute, drop func(string) bool) []classfile.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		if !drop(pool.Utf8(a.NameIndex)) {
			kept = append(kept, a)
		}
	}
	return kept
}
