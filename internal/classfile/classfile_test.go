package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cf := New("net/example/Foo", "java/lang/Object")
	cf.AddField(AccPrivate, "count", "I")
	m := cf.AddMethod(AccPublic, "run", "()V")

	code := &CodeAttr{
		MaxStack:  1,
		MaxLocals: 1,
		Code:      []byte{0xb1}, // return
	}
	m.AddAttr(cf.Pool, AttrCode, code.Bytes())
	src := cf.Pool.AddUtf8("Foo.java")
	cf.AddAttr(AttrSourceFile, []byte{byte(src >> 8), byte(src)})

	data, err := cf.Bytes()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "net/example/Foo", parsed.ThisClassName())
	assert.Equal(t, "java/lang/Object", parsed.Pool.ClassName(parsed.SuperClass))
	require.Len(t, parsed.Fields, 1)
	assert.Equal(t, "count", parsed.Pool.Utf8(parsed.Fields[0].NameIndex))
	assert.Equal(t, "I", parsed.Pool.Utf8(parsed.Fields[0].DescIndex))
	require.Len(t, parsed.Methods, 1)
	assert.Equal(t, "run", parsed.Pool.Utf8(parsed.Methods[0].NameIndex))

	// Byte-stable re-encode.
	again, err := parsed.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0})
	assert.ErrorContains(t, err, "magic")
}

func TestParseRejectsTruncated(t *testing.T) {
	cf := New("a/B", "java/lang/Object")
	data, err := cf.Bytes()
	require.NoError(t, err)
	_, err = Parse(data[:len(data)-3])
	assert.Error(t, err)
}

func TestLongDoubleSlotHandling(t *testing.T) {
	cf := New("a/B", "java/lang/Object")
	cf.Pool.append(Const{Tag: TagLong, Raw: []byte{0, 0, 0, 0, 0, 0, 0, 42}})
	cf.Pool.consts = append(cf.Pool.consts, Const{}) // second slot
	after := cf.Pool.AddUtf8("afterLong")

	data, err := cf.Bytes()
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "afterLong", parsed.Pool.Utf8(after))
}

func TestAddUtf8Interns(t *testing.T) {
	cf := New("a/B", "java/lang/Object")
	i := cf.Pool.AddUtf8("name")
	j := cf.Pool.AddUtf8("name")
	assert.Equal(t, i, j)
}

func TestNameAndTypeResolution(t *testing.T) {
	cf := New("a/B", "java/lang/Object")
	ref := cf.AddMethodRef("a/Owner", "doThing", "(I)V")

	c := cf.Pool.At(ref)
	require.NotNil(t, c)
	assert.Equal(t, "a/Owner", cf.Pool.ClassName(c.Idx1))
	name, desc := cf.Pool.NameAndType(c.Idx2)
	assert.Equal(t, "doThing", name)
	assert.Equal(t, "(I)V", desc)
}

func TestCodeAttrRoundTrip(t *testing.T) {
	code := &CodeAttr{
		MaxStack:   2,
		MaxLocals:  3,
		Code:       []byte{0x2a, 0xb1},
		Exceptions: []ExceptionEntry{{0, 1, 1, 7}},
		Attrs:      []Attribute{{NameIndex: 5, Data: []byte{0, 0}}},
	}
	parsed, err := ParseCode(code.Bytes())
	require.NoError(t, err)
	assert.Equal(t, code, parsed)
}

func TestLocalVarTableRoundTrip(t *testing.T) {
	vars := []LocalVar{{0, 10, 3, 4, 0}, {0, 10, 5, 6, 1}}
	parsed, err := ParseLocalVars(LocalVarsBytes(vars))
	require.NoError(t, err)
	assert.Equal(t, vars, parsed)
}

func TestInnerClassesRoundTrip(t *testing.T) {
	entries := []InnerClassEntry{{2, 4, 6, AccPublic | AccStatic}}
	parsed, err := ParseInnerClasses(InnerClassesBytes(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, parsed)
}
