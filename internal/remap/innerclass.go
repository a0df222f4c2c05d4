package remap

import (
	"encoding/binary"
	"strings"

	"github.com/reforge-tools/reforge/internal/classfile"
	"github.com/reforge-tools/reforge/internal/mapping"
)

// InnerClassCorrection restores the InnerClasses and EnclosingMethod
// attributes that obfuscation discarded, from an externally supplied table.
// Without them decompilers emit nested classes as free-standing top level
// types. The table keys on rewritten class names, so this runs after the
// rename pass.
type InnerClassCorrection struct {
	Table *mapping.InnerClassTable
}

// Name implements Transformer.
func (t *InnerClassCorrection) Name() string { return "innerclass-correction" }

// Transform implements Transformer.
func (t *InnerClassCorrection) Transform(cf *classfile.ClassFile) error {
	info, ok := t.Table.Lookup(cf.ThisClassName())
	if !ok {
		return nil
	}
	pool := cf.Pool

	if em := info.EnclosingMethod; em != nil {
		data := make([]byte, 4)
		binary.BigEndian.PutUint16(data, pool.AddClass(em.Owner))
		if em.Name != "" {
			binary.BigEndian.PutUint16(data[2:], pool.AddNameAndType(em.Name, em.Desc))
		}
		setClassAttr(cf, classfile.AttrEnclosingMethod, data)
	}

	if len(info.InnerClasses) > 0 {
		entries := make([]classfile.InnerClassEntry, 0, len(info.InnerClasses))
		for _, row := range info.InnerClasses {
			e := classfile.InnerClassEntry{
				InnerClassInfo: pool.AddClass(row.InnerClass),
				Access:         row.Access,
			}
			if row.OuterClass != "" {
				e.OuterClassInfo = pool.AddClass(row.OuterClass)
			}
			if row.InnerName != "" {
				e.InnerNameIndex = pool.AddUtf8(row.InnerName)
			}
			entries = append(entries, e)
		}
		setClassAttr(cf, classfile.AttrInnerClasses, classfile.InnerClassesBytes(entries))
	}
	return nil
}

// setClassAttr replaces an existing class attribute of the same name or
// appends a new one.
func setClassAttr(cf *classfile.ClassFile, name string, data []byte) {
	for i := range cf.Attrs {
		if cf.AttrName(cf.Attrs[i]) == name {
			cf.Attrs[i].Data = data
			return
		}
	}
	cf.Attrs = append(cf.Attrs, classfile.Attribute{
		NameIndex: cf.Pool.AddUtf8(name),
		Data:      data,
	})
}

// ConstructorCleanup flags the hidden outer-instance parameter of non-static
// inner class constructors as synthetic so decompilers omit it from the
// emitted parameter list.
type ConstructorCleanup struct{}

// Name implements Transformer.
func (t *ConstructorCleanup) Name() string { return "constructor-cleanup" }

// Transform implements Transformer.
func (t *ConstructorCleanup) Transform(cf *classfile.ClassFile) error {
	name := cf.ThisClassName()
	dollar := strings.LastIndexByte(name, '$')
	if dollar < 0 {
		return nil
	}
	if static, known := innerIsStatic(cf, name); known && static {
		return nil
	}
	pool := cf.Pool
	outerDesc := "L" + name[:dollar] + ";"

	for mi := range cf.Methods {
		m := &cf.Methods[mi]
		if pool.Utf8(m.NameIndex) != "<init>" {
			continue
		}
		params := paramDescriptors(pool.Utf8(m.DescIndex))
		if len(params) == 0 || params[0] != outerDesc {
			continue
		}

		marked := false
		for ai := range m.Attrs {
			if pool.Utf8(m.Attrs[ai].NameIndex) != classfile.AttrMethodParameters {
				continue
			}
			rows, err := classfile.ParseMethodParameters(m.Attrs[ai].Data)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				rows[0].Access |= classfile.AccSynthetic
				m.Attrs[ai].Data = classfile.MethodParametersBytes(rows)
			}
			marked = true
		}
		if !marked {
			rows := make([]classfile.MethodParameter, len(params))
			rows[0].Access = classfile.AccSynthetic
			m.AddAttr(pool, classfile.AttrMethodParameters, classfile.MethodParametersBytes(rows))
		}
	}
	return nil
}

// innerIsStatic consults the class's own InnerClasses attribute row; the
// second return is false when no row describes the class.
func innerIsStatic(cf *classfile.ClassFile, name string) (bool, bool) {
	for _, a := range cf.Attrs {
		if cf.AttrName(a) != classfile.AttrInnerClasses {
			continue
		}
		entries, err := classfile.ParseInnerClasses(a.Data)
		if err != nil {
			return false, false
		}
		for _, e := range entries {
			if cf.Pool.ClassName(e.InnerClassInfo) == name {
				return e.Access&classfile.AccStatic != 0, true
			}
		}
	}
	return false, false
}
