// Package classfile reads and writes JVM class files at the structural
// level: constant pool, member envelopes and attribute payloads. Method
// bytecode is carried as opaque bytes; identifier rewrites work by appending
// constants and repointing reference indices, which keeps every pre-existing
// pool index (and therefore all bytecode) valid.
package classfile

import (
	"encoding/binary"
	"fmt"
)

const magic = 0xCAFEBABE

// Access flags used by the transformers.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccInterface = 0x0200
	AccSynthetic = 0x1000
)

// Attribute is a raw attribute: a pool index naming it plus its payload.
type Attribute struct {
	NameIndex uint16
	Data      []byte
}

// Member is a field_info or method_info envelope.
type Member struct {
	Access    uint16
	NameIndex uint16
	DescIndex uint16
	Attrs     []Attribute
}

// ClassFile is a parsed class file.
type ClassFile struct {
	Minor, Major uint16
	Pool         *ConstPool
	Access       uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attrs        []Attribute
}

// ThisClassName returns the internal name of the class itself.
func (cf *ClassFile) ThisClassName() string {
	return cf.Pool.ClassName(cf.ThisClass)
}

// AttrName resolves an attribute's name.
func (cf *ClassFile) AttrName(a Attribute) string {
	return cf.Pool.Utf8(a.NameIndex)
}

// Parse decodes a class file.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{buf: data}

	if m := r.u4(); m != magic {
		return nil, fmt.Errorf("malformed class file: bad magic 0x%08X", m)
	}
	cf := &ClassFile{}
	cf.Minor = r.u2()
	cf.Major = r.u2()

	pool, err := parsePool(r)
	if err != nil {
		return nil, err
	}
	cf.Pool = pool

	cf.Access = r.u2()
	cf.ThisClass = r.u2()
	cf.SuperClass = r.u2()

	ifaceCount := int(r.u2())
	cf.Interfaces = make([]uint16, ifaceCount)
	for i := 0; i < ifaceCount; i++ {
		cf.Interfaces[i] = r.u2()
	}

	if cf.Fields, err = parseMembers(r); err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}
	if cf.Methods, err = parseMembers(r); err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}
	if cf.Attrs, err = parseAttrs(r); err != nil {
		return nil, fmt.Errorf("class attributes: %w", err)
	}
	if r.err != nil {
		return nil, fmt.Errorf("malformed class file: %w", r.err)
	}
	return cf, nil
}

func parsePool(r *reader) (*ConstPool, error) {
	count := int(r.u2())
	if count == 0 {
		return nil, fmt.Errorf("malformed class file: empty constant pool")
	}
	pool := &ConstPool{consts: make([]Const, 1, count)}

	for i := 1; i < count; i++ {
		tag := r.u1()
		c := Const{Tag: tag}
		switch tag {
		case TagUtf8:
			c.Utf8 = string(r.bytes(int(r.u2())))
		case TagInteger, TagFloat:
			c.Raw = append([]byte(nil), r.bytes(4)...)
		case TagLong, TagDouble:
			c.Raw = append([]byte(nil), r.bytes(8)...)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.Idx1 = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref,
			TagNameAndType, TagDynamic, TagInvokeDynamic:
			c.Idx1 = r.u2()
			c.Idx2 = r.u2()
		case TagMethodHandle:
			c.RefKind = r.u1()
			c.Idx1 = r.u2()
		default:
			return nil, fmt.Errorf("malformed class file: unknown constant tag %d at index %d", tag, i)
		}
		if r.err != nil {
			return nil, fmt.Errorf("malformed constant pool: %w", r.err)
		}
		pool.consts = append(pool.consts, c)
		if tag == TagLong || tag == TagDouble {
			pool.consts = append(pool.consts, Const{})
			i++
		}
	}
	return pool, nil
}

func parseMembers(r *reader) ([]Member, error) {
	count := int(r.u2())
	members := make([]Member, count)
	for i := 0; i < count; i++ {
		members[i].Access = r.u2()
		members[i].NameIndex = r.u2()
		members[i].DescIndex = r.u2()
		attrs, err := parseAttrs(r)
		if err != nil {
			return nil, err
		}
		members[i].Attrs = attrs
	}
	return members, r.err
}

func parseAttrs(r *reader) ([]Attribute, error) {
	count := int(r.u2())
	attrs := make([]Attribute, count)
	for i := 0; i < count; i++ {
		attrs[i].NameIndex = r.u2()
		length := int(r.u4())
		attrs[i].Data = append([]byte(nil), r.bytes(length)...)
		if r.err != nil {
			return nil, r.err
		}
	}
	return attrs, nil
}

// Bytes re-encodes the class file.
func (cf *ClassFile) Bytes() ([]byte, error) {
	if err := cf.Pool.check(); err != nil {
		return nil, err
	}
	w := &writer{}

	w.u4(magic)
	w.u2(cf.Minor)
	w.u2(cf.Major)

	w.u2(uint16(cf.Pool.Len()))
	for i := 1; i < cf.Pool.Len(); i++ {
		c := cf.Pool.consts[i]
		switch c.Tag {
		case 0:
			// second slot of a Long/Double, not encoded
			continue
		case TagUtf8:
			w.u1(c.Tag)
			w.u2(uint16(len(c.Utf8)))
			w.raw([]byte(c.Utf8))
		case TagInteger, TagFloat, TagLong, TagDouble:
			w.u1(c.Tag)
			w.raw(c.Raw)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.u1(c.Tag)
			w.u2(c.Idx1)
		case TagFieldref, TagMethodref, TagInterfaceMethodref,
			TagNameAndType, TagDynamic, TagInvokeDynamic:
			w.u1(c.Tag)
			w.u2(c.Idx1)
			w.u2(c.Idx2)
		case TagMethodHandle:
			w.u1(c.Tag)
			w.u1(c.RefKind)
			w.u2(c.Idx1)
		default:
			return nil, fmt.Errorf("cannot encode constant tag %d", c.Tag)
		}
	}

	w.u2(cf.Access)
	w.u2(cf.ThisClass)
	w.u2(cf.SuperClass)
	w.u2(uint16(len(cf.Interfaces)))
	for _, i := range cf.Interfaces {
		w.u2(i)
	}

	writeMembers(w, cf.Fields)
	writeMembers(w, cf.Methods)
	writeAttrs(w, cf.Attrs)
	return w.buf, nil
}

func writeMembers(w *writer, members []Member) {
	w.u2(uint16(len(members)))
	for _, m := range members {
		w.u2(m.Access)
		w.u2(m.NameIndex)
		w.u2(m.DescIndex)
		writeAttrs(w, m.Attrs)
	}
}

func writeAttrs(w *writer, attrs []Attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.NameIndex)
		w.u4(uint32(len(a.Data)))
		w.raw(a.Data)
	}
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) u1() byte {
	if r.err != nil || r.off+1 > len(r.buf) {
		r.fail(1)
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if r.err != nil || r.off+2 > len(r.buf) {
		r.fail(2)
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if r.err != nil || r.off+4 > len(r.buf) {
		r.fail(4)
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || n < 0 || r.off+n > len(r.buf) {
		r.fail(n)
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *reader) fail(n int) {
	if r.err == nil {
		r.err = fmt.Errorf("truncated at offset %d (need %d bytes)", r.off, n)
	}
}

type writer struct {
	buf []byte
}

func (w *writer) u1(v byte)     { w.buf = append(w.buf, v) }
func (w *writer) u2(v uint16)   { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) u4(v uint32)   { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) raw(b []byte)  { w.buf = append(w.buf, b...) }
