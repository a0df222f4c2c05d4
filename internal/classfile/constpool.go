package classfile

import "fmt"

// Constant pool tags.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// Const is a single constant pool entry. Long and Double entries occupy two
// slots; the second slot carries tag 0 and is never referenced.
type Const struct {
	Tag     byte
	Utf8    string // TagUtf8 payload
	Raw     []byte // 4 or 8 byte numeric payload
	RefKind byte   // TagMethodHandle reference kind
	Idx1    uint16
	Idx2    uint16
}

// ConstPool holds the pool with 1-based indexing (slot 0 is unused, matching
// the class file layout). Identifier rewrites append new entries and repoint
// individual references, so existing indices stay stable and method bytecode
// never needs patching.
type ConstPool struct {
	consts []Const

	utf8Lookup map[string]uint16
	overflowed bool
}

// Len returns the pool entry count as encoded in the class file header.
func (p *ConstPool) Len() int { return len(p.consts) }

// At returns a pointer to the entry at index i, or nil if out of range.
func (p *ConstPool) At(i uint16) *Const {
	if int(i) >= len(p.consts) || i == 0 {
		return nil
	}
	return &p.consts[i]
}

// Utf8 resolves a Utf8 entry, returning "" for invalid indices.
func (p *ConstPool) Utf8(i uint16) string {
	c := p.At(i)
	if c == nil || c.Tag != TagUtf8 {
		return ""
	}
	return c.Utf8
}

// ClassName resolves a Class entry to its internal name.
func (p *ConstPool) ClassName(i uint16) string {
	c := p.At(i)
	if c == nil || c.Tag != TagClass {
		return ""
	}
	return p.Utf8(c.Idx1)
}

// NameAndType resolves a NameAndType entry to its name and descriptor.
func (p *ConstPool) NameAndType(i uint16) (name, desc string) {
	c := p.At(i)
	if c == nil || c.Tag != TagNameAndType {
		return "", ""
	}
	return p.Utf8(c.Idx1), p.Utf8(c.Idx2)
}

// AddUtf8 interns s in the pool and returns its index. Existing entries are
// reused, so repeated rewrites to the same name cost one slot total.
func (p *ConstPool) AddUtf8(s string) uint16 {
	if p.utf8Lookup == nil {
		p.utf8Lookup = make(map[string]uint16)
		for i := 1; i < len(p.consts); i++ {
			if p.consts[i].Tag == TagUtf8 {
				if _, seen := p.utf8Lookup[p.consts[i].Utf8]; !seen {
					p.utf8Lookup[p.consts[i].Utf8] = uint16(i)
				}
			}
		}
	}
	if i, ok := p.utf8Lookup[s]; ok {
		return i
	}
	i := p.append(Const{Tag: TagUtf8, Utf8: s})
	p.utf8Lookup[s] = i
	return i
}

// AddClass interns a Class entry for the given internal name.
func (p *ConstPool) AddClass(name string) uint16 {
	nameIdx := p.AddUtf8(name)
	for i := 1; i < len(p.consts); i++ {
		if p.consts[i].Tag == TagClass && p.consts[i].Idx1 == nameIdx {
			return uint16(i)
		}
	}
	return p.append(Const{Tag: TagClass, Idx1: nameIdx})
}

// AddNameAndType interns a NameAndType entry.
func (p *ConstPool) AddNameAndType(name, desc string) uint16 {
	nameIdx := p.AddUtf8(name)
	descIdx := p.AddUtf8(desc)
	for i := 1; i < len(p.consts); i++ {
		c := &p.consts[i]
		if c.Tag == TagNameAndType && c.Idx1 == nameIdx && c.Idx2 == descIdx {
			return uint16(i)
		}
	}
	return p.append(Const{Tag: TagNameAndType, Idx1: nameIdx, Idx2: descIdx})
}

func (p *ConstPool) append(c Const) uint16 {
	if len(p.consts) >= 0xFFFF {
		p.overflowed = true
		return 0
	}
	p.consts = append(p.consts, c)
	return uint16(len(p.consts) - 1)
}

func (p *ConstPool) check() error {
	if p.overflowed {
		return fmt.Errorf("constant pool overflow: more than 65534 entries after rewrite")
	}
	return nil
}
