package remap

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/reforge-tools/reforge/internal/classfile"
	"github.com/reforge-tools/reforge/internal/mapping"
)

// Rename applies a composite mapping to every identifier in a class file.
//
// The rewrite never moves or edits existing constant pool entries: changed
// names are appended as fresh Utf8/NameAndType constants and the individual
// reference sites (member envelopes, Class entries, ref entries, attribute
// payloads) are repointed at them. Pre-existing pool indices therefore stay
// valid, which is what keeps method bytecode byte-for-byte untouched.
type Rename struct {
	Mapping *mapping.Composite
}

// NewRename returns the core rename pass over the given composite mapping.
func NewRename(m *mapping.Composite) *Rename { return &Rename{Mapping: m} }

// Name implements Transformer.
func (t *Rename) Name() string { return "rename" }

type natPair struct {
	name, desc string
}

// Transform implements Transformer.
func (t *Rename) Transform(cf *classfile.ClassFile) error {
	pool := cf.Pool
	owner := cf.ThisClassName()
	classFn := t.Mapping.ClassName

	// Snapshot the pool before any appends: member reference rewriting needs
	// the original owner names and descriptors as lookup keys, not the
	// half-rewritten state.
	n := pool.Len()
	origClass := make(map[uint16]string)
	origNAT := make(map[uint16]natPair)
	for i := 1; i < n; i++ {
		idx := uint16(i)
		switch pool.At(idx).Tag {
		case classfile.TagClass:
			origClass[idx] = pool.ClassName(idx)
		case classfile.TagNameAndType:
			name, desc := pool.NameAndType(idx)
			origNAT[idx] = natPair{name, desc}
		}
	}

	// Member references: the name is scoped by the referenced owner, so each
	// changed ref gets its own fresh NameAndType.
	for i := 1; i < n; i++ {
		idx := uint16(i)
		c := pool.At(idx)
		switch c.Tag {
		case classfile.TagFieldref, classfile.TagMethodref, classfile.TagInterfaceMethodref:
			refOwner := origClass[c.Idx1]
			nt := origNAT[c.Idx2]
			newName := nt.name
			if !strings.HasPrefix(refOwner, "[") { // array pseudo-owners only carry clone()
				if c.Tag == classfile.TagFieldref {
					newName = t.Mapping.FieldName(refOwner, nt.name, nt.desc)
				} else {
					newName = t.Mapping.MethodName(refOwner, nt.name, nt.desc)
				}
			}
			newDesc := mapping.MapDescriptor(nt.desc, classFn)
			if newName != nt.name || newDesc != nt.desc {
				repointed := pool.AddNameAndType(newName, newDesc)
				pool.At(idx).Idx2 = repointed
			}
		case classfile.TagDynamic, classfile.TagInvokeDynamic:
			// Bootstrap method names are not owner-scoped; only the
			// descriptor participates in the rewrite.
			nt := origNAT[c.Idx2]
			if newDesc := mapping.MapDescriptor(nt.desc, classFn); newDesc != nt.desc {
				repointed := pool.AddNameAndType(nt.name, newDesc)
				pool.At(idx).Idx2 = repointed
			}
		}
	}

	// Descriptor remapping on a NameAndType is context-free, so the
	// remaining original entries (still referenced by EnclosingMethod and
	// unchanged refs) are rewritten in place via their descriptor pointer.
	// Both fixup loops walk the pool in index order so appends land in a
	// stable order and the rewritten file is byte-reproducible.
	for i := 1; i < n; i++ {
		idx := uint16(i)
		nt, ok := origNAT[idx]
		if !ok {
			continue
		}
		if newDesc := mapping.MapDescriptor(nt.desc, classFn); newDesc != nt.desc {
			descIdx := pool.AddUtf8(newDesc)
			pool.At(idx).Idx2 = descIdx
		}
	}

	// Class entries, including ThisClass and SuperClass. Array class
	// constants ("[La;") carry a descriptor instead of a plain name.
	for i := 1; i < n; i++ {
		idx := uint16(i)
		name, ok := origClass[idx]
		if !ok {
			continue
		}
		var mapped string
		if strings.HasPrefix(name, "[") {
			mapped = mapping.MapDescriptor(name, classFn)
		} else {
			mapped = classFn(name)
		}
		if mapped != name {
			nameIdx := pool.AddUtf8(mapped)
			pool.At(idx).Idx1 = nameIdx
		}
	}

	for i := range cf.Fields {
		if err := t.renameField(cf, &cf.Fields[i], owner); err != nil {
			return err
		}
	}
	for i := range cf.Methods {
		if err := t.renameMethod(cf, &cf.Methods[i], owner); err != nil {
			return err
		}
	}
	return t.renameClassAttrs(cf, origClass, origNAT)
}

func (t *Rename) renameField(cf *classfile.ClassFile, f *classfile.Member, owner string) error {
	pool := cf.Pool
	name := pool.Utf8(f.NameIndex)
	desc := pool.Utf8(f.DescIndex)

	if newName := t.Mapping.FieldName(owner, name, desc); newName != name {
		f.NameIndex = pool.AddUtf8(newName)
	}
	if newDesc := mapping.MapDescriptor(desc, t.Mapping.ClassName); newDesc != desc {
		f.DescIndex = pool.AddUtf8(newDesc)
	}
	for i := range f.Attrs {
		if pool.Utf8(f.Attrs[i].NameIndex) == classfile.AttrSignature {
			f.Attrs[i].Data = t.rewriteSignature(pool, f.Attrs[i].Data)
		}
	}
	return nil
}

func (t *Rename) renameMethod(cf *classfile.ClassFile, m *classfile.Member, owner string) error {
	pool := cf.Pool
	name := pool.Utf8(m.NameIndex)
	desc := pool.Utf8(m.DescIndex)

	newName := t.Mapping.MethodName(owner, name, desc)
	newDesc := mapping.MapDescriptor(desc, t.Mapping.ClassName)
	if newName != name {
		m.NameIndex = pool.AddUtf8(newName)
	}
	if newDesc != desc {
		m.DescIndex = pool.AddUtf8(newDesc)
	}

	// Parameter tables key on the rewritten identifiers, so the lookup uses
	// the mapped owner, name and descriptor.
	mappedOwner := t.Mapping.ClassName(owner)
	paramName := func(position int) string {
		return t.Mapping.ParameterName(mappedOwner, newName, newDesc, position)
	}
	slots := paramSlots(desc, m.Access&classfile.AccStatic != 0)
	slotToPos := make(map[uint16]int, len(slots))
	for pos, slot := range slots {
		slotToPos[slot] = pos
	}

	for i := range m.Attrs {
		switch pool.Utf8(m.Attrs[i].NameIndex) {
		case classfile.AttrSignature:
			m.Attrs[i].Data = t.rewriteSignature(pool, m.Attrs[i].Data)
		case classfile.AttrCode:
			data, err := t.renameCode(pool, m.Attrs[i].Data, slotToPos, paramName)
			if err != nil {
				return fmt.Errorf("method %s%s: %w", name, desc, err)
			}
			m.Attrs[i].Data = data
		case classfile.AttrMethodParameters:
			params, err := classfile.ParseMethodParameters(m.Attrs[i].Data)
			if err != nil {
				return fmt.Errorf("method %s%s: %w", name, desc, err)
			}
			for pi := range params {
				if pname := paramName(pi); pname != "" {
					params[pi].NameIndex = pool.AddUtf8(pname)
				}
			}
			m.Attrs[i].Data = classfile.MethodParametersBytes(params)
		}
	}
	return nil
}

// renameCode rewrites the variable tables nested inside a Code attribute.
// The bytecode itself passes through untouched.
func (t *Rename) renameCode(pool *classfile.ConstPool, data []byte, slotToPos map[uint16]int, paramName func(int) string) ([]byte, error) {
	code, err := classfile.ParseCode(data)
	if err != nil {
		return nil, err
	}
	for i := range code.Attrs {
		attrName := pool.Utf8(code.Attrs[i].NameIndex)
		if attrName != classfile.AttrLocalVariableTable && attrName != classfile.AttrLocalVariableTypeTable {
			continue
		}
		vars, err := classfile.ParseLocalVars(code.Attrs[i].Data)
		if err != nil {
			return nil, err
		}
		for vi := range vars {
			ref := pool.Utf8(vars[vi].DescIndex)
			var mapped string
			if attrName == classfile.AttrLocalVariableTable {
				mapped = mapping.MapDescriptor(ref, t.Mapping.ClassName)
			} else {
				mapped = mapping.MapSignature(ref, t.Mapping.ClassName)
			}
			if mapped != ref {
				vars[vi].DescIndex = pool.AddUtf8(mapped)
			}
			// Rows spanning the whole body at a parameter slot are the
			// parameters themselves.
			if pos, ok := slotToPos[vars[vi].Slot]; ok && vars[vi].StartPC == 0 {
				if pname := paramName(pos); pname != "" {
					vars[vi].NameIndex = pool.AddUtf8(pname)
				}
			}
		}
		code.Attrs[i].Data = classfile.LocalVarsBytes(vars)
	}
	return code.Bytes(), nil
}

func (t *Rename) renameClassAttrs(cf *classfile.ClassFile, origClass map[uint16]string, origNAT map[uint16]natPair) error {
	pool := cf.Pool
	for i := range cf.Attrs {
		switch pool.Utf8(cf.Attrs[i].NameIndex) {
		case classfile.AttrSignature:
			cf.Attrs[i].Data = t.rewriteSignature(pool, cf.Attrs[i].Data)
		case classfile.AttrInnerClasses:
			entries, err := classfile.ParseInnerClasses(cf.Attrs[i].Data)
			if err != nil {
				return err
			}
			for ei := range entries {
				if entries[ei].InnerNameIndex == 0 {
					continue
				}
				mapped := t.Mapping.ClassName(origClass[entries[ei].InnerClassInfo])
				entries[ei].InnerNameIndex = pool.AddUtf8(simpleName(mapped))
			}
			cf.Attrs[i].Data = classfile.InnerClassesBytes(entries)
		case classfile.AttrEnclosingMethod:
			if len(cf.Attrs[i].Data) != 4 {
				return fmt.Errorf("malformed EnclosingMethod attribute")
			}
			classIdx := binary.BigEndian.Uint16(cf.Attrs[i].Data)
			natIdx := binary.BigEndian.Uint16(cf.Attrs[i].Data[2:])
			if natIdx == 0 {
				continue
			}
			encOwner := origClass[classIdx]
			nt := origNAT[natIdx]
			newName := t.Mapping.MethodName(encOwner, nt.name, nt.desc)
			newDesc := mapping.MapDescriptor(nt.desc, t.Mapping.ClassName)
			if newName != nt.name || newDesc != nt.desc {
				repointed := pool.AddNameAndType(newName, newDesc)
				data := make([]byte, 4)
				binary.BigEndian.PutUint16(data, classIdx)
				binary.BigEndian.PutUint16(data[2:], repointed)
				cf.Attrs[i].Data = data
			}
		}
	}

	return nil
}

// rewriteSignature repoints a Signature attribute payload (a single pool
// index) at the mapped form of the signature string.
func (t *Rename) rewriteSignature(pool *classfile.ConstPool, data []byte) []byte {
	if len(data) != 2 {
		return data
	}
	idx := binary.BigEndian.Uint16(data)
	sig := pool.Utf8(idx)
	mapped := mapping.MapSignature(sig, t.Mapping.ClassName)
	if mapped == sig {
		return data
	}
	repointed := pool.AddUtf8(mapped)
	return []byte{byte(repointed >> 8), byte(repointed)}
}

func simpleName(internal string) string {
	if dollar := strings.LastIndexByte(internal, '$'); dollar >= 0 {
		return internal[dollar+1:]
	}
	if slash := strings.LastIndexByte(internal, '/'); slash >= 0 {
		return internal[slash+1:]
	}
	return internal
}
