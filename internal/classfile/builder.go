package classfile

// New assembles a minimal class file in memory. Transform tests and fixture
// generation build synthetic classes through this instead of carrying binary
// fixtures around.
func New(thisName, superName string) *ClassFile {
	cf := &ClassFile{
		Major:  52, // Java 8
		Pool:   &ConstPool{consts: make([]Const, 1)},
		Access: AccPublic,
	}
	cf.ThisClass = cf.Pool.AddClass(thisName)
	cf.SuperClass = cf.Pool.AddClass(superName)
	return cf
}

// AddField appends a field and returns a pointer to it for attribute setup.
func (cf *ClassFile) AddField(access uint16, name, desc string) *Member {
	cf.Fields = append(cf.Fields, Member{
		Access:    access,
		NameIndex: cf.Pool.AddUtf8(name),
		DescIndex: cf.Pool.AddUtf8(desc),
	})
	return &cf.Fields[len(cf.Fields)-1]
}

// AddMethod appends a method and returns a pointer to it for attribute setup.
func (cf *ClassFile) AddMethod(access uint16, name, desc string) *Member {
	cf.Methods = append(cf.Methods, Member{
		Access:    access,
		NameIndex: cf.Pool.AddUtf8(name),
		DescIndex: cf.Pool.AddUtf8(desc),
	})
	return &cf.Methods[len(cf.Methods)-1]
}

// AddFieldRef interns a Fieldref against the given owner and returns its index.
func (cf *ClassFile) AddFieldRef(owner, name, desc string) uint16 {
	return cf.Pool.append(Const{
		Tag:  TagFieldref,
		Idx1: cf.Pool.AddClass(owner),
		Idx2: cf.Pool.AddNameAndType(name, desc),
	})
}

// AddMethodRef interns a Methodref against the given owner and returns its index.
func (cf *ClassFile) AddMethodRef(owner, name, desc string) uint16 {
	return cf.Pool.append(Const{
		Tag:  TagMethodref,
		Idx1: cf.Pool.AddClass(owner),
		Idx2: cf.Pool.AddNameAndType(name, desc),
	})
}

// AddAttr appends a named attribute to the class.
func (cf *ClassFile) AddAttr(name string, data []byte) {
	cf.Attrs = append(cf.Attrs, Attribute{NameIndex: cf.Pool.AddUtf8(name), Data: data})
}

// AddAttr appends a named attribute to the member.
func (m *Member) AddAttr(pool *ConstPool, name string, data []byte) {
	m.Attrs = append(m.Attrs, Attribute{NameIndex: pool.AddUtf8(name), Data: data})
}
