package remap

import (
	"fmt"

	"github.com/reforge-tools/reforge/internal/classfile"
)

// VariableTableConstruction synthesizes a LocalVariableTable for every
// concrete method that lacks one. Obfuscators routinely strip the table, but
// without it there are no rows for the rename pass to hang parameter names
// on, so this runs first in the chain. Synthesized rows span the whole body:
// "this" at slot 0 for instance methods and a placeholder per parameter.
type VariableTableConstruction struct{}

// Name implements Transformer.
func (t *VariableTableConstruction) Name() string { return "vartable-construction" }

// Transform implements Transformer.
func (t *VariableTableConstruction) Transform(cf *classfile.ClassFile) error {
	pool := cf.Pool
	thisDesc := "L" + cf.ThisClassName() + ";"

	for mi := range cf.Methods {
		m := &cf.Methods[mi]
		desc := pool.Utf8(m.DescIndex)

		for ai := range m.Attrs {
			if pool.Utf8(m.Attrs[ai].NameIndex) != classfile.AttrCode {
				continue
			}
			code, err := classfile.ParseCode(m.Attrs[ai].Data)
			if err != nil {
				return fmt.Errorf("method %s%s: %w", pool.Utf8(m.NameIndex), desc, err)
			}
			if hasLocalVariableTable(pool, code) {
				continue
			}

			static := m.Access&classfile.AccStatic != 0
			length := uint16(len(code.Code))
			var vars []classfile.LocalVar
			if !static {
				vars = append(vars, classfile.LocalVar{
					Length:    length,
					NameIndex: pool.AddUtf8("this"),
					DescIndex: pool.AddUtf8(thisDesc),
				})
			}
			slots := paramSlots(desc, static)
			for pos, pdesc := range paramDescriptors(desc) {
				vars = append(vars, classfile.LocalVar{
					Length:    length,
					NameIndex: pool.AddUtf8(fmt.Sprintf("var%d", slots[pos])),
					DescIndex: pool.AddUtf8(pdesc),
					Slot:      slots[pos],
				})
			}
			if len(vars) == 0 {
				continue
			}
			code.Attrs = append(code.Attrs, classfile.Attribute{
				NameIndex: pool.AddUtf8(classfile.AttrLocalVariableTable),
				Data:      classfile.LocalVarsBytes(vars),
			})
			m.Attrs[ai].Data = code.Bytes()
		}
	}
	return nil
}

func hasLocalVariableTable(pool *classfile.ConstPool, code *classfile.CodeAttr) bool {
	for _, a := range code.Attrs {
		if pool.Utf8(a.NameIndex) == classfile.AttrLocalVariableTable {
			return true
		}
	}
	return false
}
