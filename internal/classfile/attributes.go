package classfile

import "fmt"

// Well-known attribute names.
const (
	AttrCode                   = "Code"
	AttrSignature              = "Signature"
	AttrSourceFile             = "SourceFile"
	AttrSourceDebugExtension   = "SourceDebugExtension"
	AttrLineNumberTable        = "LineNumberTable"
	AttrLocalVariableTable     = "LocalVariableTable"
	AttrLocalVariableTypeTable = "LocalVariableTypeTable"
	AttrInnerClasses           = "InnerClasses"
	AttrEnclosingMethod        = "EnclosingMethod"
	AttrMethodParameters       = "MethodParameters"
	AttrExceptions             = "Exceptions"
)

// ExceptionEntry is one row of a Code attribute's exception table. CatchType
// is a Class pool index (or 0 for catch-all), so it needs no rewriting here.
type ExceptionEntry struct {
	StartPC, EndPC, HandlerPC, CatchType uint16
}

// CodeAttr is the decoded envelope of a Code attribute. The bytecode itself
// stays opaque; only the nested attributes are structured.
type CodeAttr struct {
	MaxStack   uint16
	MaxLocals  uint16
	Code       []byte
	Exceptions []ExceptionEntry
	Attrs      []Attribute
}

// ParseCode decodes a Code attribute payload.
func ParseCode(data []byte) (*CodeAttr, error) {
	r := &reader{buf: data}
	c := &CodeAttr{}
	c.MaxStack = r.u2()
	c.MaxLocals = r.u2()
	c.Code = append([]byte(nil), r.bytes(int(r.u4()))...)

	excCount := int(r.u2())
	c.Exceptions = make([]ExceptionEntry, excCount)
	for i := 0; i < excCount; i++ {
		c.Exceptions[i] = ExceptionEntry{r.u2(), r.u2(), r.u2(), r.u2()}
	}

	attrs, err := parseAttrs(r)
	if err != nil {
		return nil, fmt.Errorf("code attributes: %w", err)
	}
	c.Attrs = attrs
	if r.err != nil {
		return nil, fmt.Errorf("malformed Code attribute: %w", r.err)
	}
	return c, nil
}

// Bytes re-encodes the Code attribute payload.
func (c *CodeAttr) Bytes() []byte {
	w := &writer{}
	w.u2(c.MaxStack)
	w.u2(c.MaxLocals)
	w.u4(uint32(len(c.Code)))
	w.raw(c.Code)
	w.u2(uint16(len(c.Exceptions)))
	for _, e := range c.Exceptions {
		w.u2(e.StartPC)
		w.u2(e.EndPC)
		w.u2(e.HandlerPC)
		w.u2(e.CatchType)
	}
	writeAttrs(w, c.Attrs)
	return w.buf
}

// LocalVar is one LocalVariableTable (or TypeTable) row.
type LocalVar struct {
	StartPC   uint16
	Length    uint16
	NameIndex uint16
	DescIndex uint16 // descriptor or signature, depending on the table
	Slot      uint16
}

// ParseLocalVars decodes a LocalVariableTable/LocalVariableTypeTable payload.
func ParseLocalVars(data []byte) ([]LocalVar, error) {
	r := &reader{buf: data}
	count := int(r.u2())
	vars := make([]LocalVar, count)
	for i := 0; i < count; i++ {
		vars[i] = LocalVar{r.u2(), r.u2(), r.u2(), r.u2(), r.u2()}
	}
	if r.err != nil {
		return nil, fmt.Errorf("malformed local variable table: %w", r.err)
	}
	return vars, nil
}

// LocalVarsBytes encodes local variable rows back into attribute payload form.
func LocalVarsBytes(vars []LocalVar) []byte {
	w := &writer{}
	w.u2(uint16(len(vars)))
	for _, v := range vars {
		w.u2(v.StartPC)
		w.u2(v.Length)
		w.u2(v.NameIndex)
		w.u2(v.DescIndex)
		w.u2(v.Slot)
	}
	return w.buf
}

// InnerClassEntry is one InnerClasses attribute row.
type InnerClassEntry struct {
	InnerClassInfo uint16 // Class pool index
	OuterClassInfo uint16 // Class pool index or 0
	InnerNameIndex uint16 // Utf8 simple name or 0 for anonymous
	Access         uint16
}

// ParseInnerClasses decodes an InnerClasses attribute payload.
func ParseInnerClasses(data []byte) ([]InnerClassEntry, error) {
	r := &reader{buf: data}
	count := int(r.u2())
	entries := make([]InnerClassEntry, count)
	for i := 0; i < count; i++ {
		entries[i] = InnerClassEntry{r.u2(), r.u2(), r.u2(), r.u2()}
	}
	if r.err != nil {
		return nil, fmt.Errorf("malformed InnerClasses attribute: %w", r.err)
	}
	return entries, nil
}

// InnerClassesBytes encodes InnerClasses rows back into payload form.
func InnerClassesBytes(entries []InnerClassEntry) []byte {
	w := &writer{}
	w.u2(uint16(len(entries)))
	for _, e := range entries {
		w.u2(e.InnerClassInfo)
		w.u2(e.OuterClassInfo)
		w.u2(e.InnerNameIndex)
		w.u2(e.Access)
	}
	return w.buf
}

// MethodParameter is one MethodParameters attribute row.
type MethodParameter struct {
	NameIndex uint16
	Access    uint16
}

// ParseMethodParameters decodes a MethodParameters attribute payload.
func ParseMethodParameters(data []byte) ([]MethodParameter, error) {
	r := &reader{buf: data}
	count := int(r.u1())
	params := make([]MethodParameter, count)
	for i := 0; i < count; i++ {
		params[i] = MethodParameter{r.u2(), r.u2()}
	}
	if r.err != nil {
		return nil, fmt.Errorf("malformed MethodParameters attribute: %w", r.err)
	}
	return params, nil
}

// MethodParametersBytes encodes MethodParameters rows back into payload form.
func MethodParametersBytes(params []MethodParameter) []byte {
	w := &writer{}
	w.u1(byte(len(params)))
	for _, p := range params {
		w.u2(p.NameIndex)
		w.u2(p.Access)
	}
	return w.buf
}
