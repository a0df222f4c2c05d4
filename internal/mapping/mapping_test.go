package mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const srgFixture = `
PK: ./ net/minecraft/src
CL: a net/minecraft/util/Vec3
CL: b net/minecraft/world/World
FD: a/b net/minecraft/util/Vec3/field_72450_a
MD: a/c (DDD)D net/minecraft/util/Vec3/func_72438_d (DDD)D
MD: b/c (DDD)D net/minecraft/world/World/func_70011_f (DDD)D
`

func TestParseSRG(t *testing.T) {
	srg, err := ParseSRG(strings.NewReader(srgFixture))
	require.NoError(t, err)

	name, ok := srg.MapClassName("a")
	require.True(t, ok)
	assert.Equal(t, "net/minecraft/util/Vec3", name)

	_, ok = srg.MapClassName("zz")
	assert.False(t, ok)

	f, ok := srg.MapFieldName("a", "b", "D")
	require.True(t, ok)
	assert.Equal(t, "field_72450_a", f)

	m, ok := srg.MapMethodName("a", "c", "(DDD)D")
	require.True(t, ok)
	assert.Equal(t, "func_72438_d", m)
}

func TestSRGMethodScopedByOwner(t *testing.T) {
	srg, err := ParseSRG(strings.NewReader(srgFixture))
	require.NoError(t, err)

	// Same simple name and descriptor under two owners resolve independently.
	a, ok := srg.MapMethodName("a", "c", "(DDD)D")
	require.True(t, ok)
	b, ok := srg.MapMethodName("b", "c", "(DDD)D")
	require.True(t, ok)
	assert.NotEqual(t, a, b)

	// A third owner with the same name and descriptor has no entry at all.
	_, ok = srg.MapMethodName("q", "c", "(DDD)D")
	assert.False(t, ok)
}

func TestSRGMethodScopedByDescriptor(t *testing.T) {
	srg, err := ParseSRG(strings.NewReader(srgFixture))
	require.NoError(t, err)

	_, ok := srg.MapMethodName("a", "c", "(I)V")
	assert.False(t, ok, "descriptor must participate in the lookup key")
}

func TestParseSRGRejectsMalformedRows(t *testing.T) {
	_, err := ParseSRG(strings.NewReader("CL: onlyone\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = ParseSRG(strings.NewReader("XX: a b\n"))
	assert.ErrorContains(t, err, "unknown row kind")
}

func TestParseCSVNames(t *testing.T) {
	csv := "searge,name,side,desc\n" +
		"field_72450_a,xCoord,2,the x component\n" +
		"func_72438_d,distanceTo,2,\"euclidean, in blocks\"\n"
	table, err := ParseCSVNames(strings.NewReader(csv), "searge", "name")
	require.NoError(t, err)

	f, ok := table.MapFieldName("any/Owner", "field_72450_a", "D")
	require.True(t, ok)
	assert.Equal(t, "xCoord", f)

	m, ok := table.MapMethodName("any/Owner", "func_72438_d", "(DDD)D")
	require.True(t, ok)
	assert.Equal(t, "distanceTo", m)

	_, ok = table.MapFieldName("any/Owner", "unknown_name", "D")
	assert.False(t, ok)
}

func TestParseCSVNamesMissingColumn(t *testing.T) {
	_, err := ParseCSVNames(strings.NewReader("a,b\n1,2\n"), "searge", "name")
	assert.ErrorContains(t, err, "searge")
}

func TestParseParamTable(t *testing.T) {
	exc := "net/minecraft/util/Vec3.func_72438_d(Lnet/minecraft/util/Vec3;)D=|p_72438_1_\n" +
		"net/minecraft/world/World.func_70011_f(DDD)D=java/io/IOException|p_70011_1_,p_70011_2_,p_70011_3_\n"
	table, err := ParseParamTable(strings.NewReader(exc))
	require.NoError(t, err)

	name, ok := table.MapParameterName("net/minecraft/util/Vec3", "func_72438_d", "(Lnet/minecraft/util/Vec3;)D", 0)
	require.True(t, ok)
	assert.Equal(t, "p_72438_1_", name)

	name, ok = table.MapParameterName("net/minecraft/world/World", "func_70011_f", "(DDD)D", 2)
	require.True(t, ok)
	assert.Equal(t, "p_70011_3_", name)

	_, ok = table.MapParameterName("net/minecraft/world/World", "func_70011_f", "(DDD)D", 3)
	assert.False(t, ok)
}

func TestCompositeFixedOrderAndFallthrough(t *testing.T) {
	srg, err := ParseSRG(strings.NewReader(srgFixture))
	require.NoError(t, err)
	c := &Composite{Classes: []ClassMapping{srg}, Fields: []FieldMapping{srg}, Methods: []MethodMapping{srg}}

	assert.Equal(t, "net/minecraft/util/Vec3", c.ClassName("a"))
	// Absence means "keep the original identifier".
	assert.Equal(t, "untouched", c.ClassName("untouched"))
	assert.Equal(t, "d", c.FieldName("a", "d", "I"))
}

func TestMapDescriptor(t *testing.T) {
	mapClass := func(name string) string {
		if name == "a" {
			return "net/minecraft/util/Vec3"
		}
		return name
	}

	assert.Equal(t, "(DDD)D", MapDescriptor("(DDD)D", mapClass))
	assert.Equal(t, "(Lnet/minecraft/util/Vec3;I)Lnet/minecraft/util/Vec3;", MapDescriptor("(La;I)La;", mapClass))
	assert.Equal(t, "[[Lnet/minecraft/util/Vec3;", MapDescriptor("[[La;", mapClass))
	assert.Equal(t, "(IJZ)V", MapDescriptor("(IJZ)V", mapClass))
}

func TestMapSignature(t *testing.T) {
	mapClass := func(name string) string {
		switch name {
		case "a":
			return "net/minecraft/util/Vec3"
		case "b$c":
			return "net/minecraft/world/World$Chunk"
		case "b":
			return "net/minecraft/world/World"
		}
		return name
	}

	assert.Equal(t,
		"Ljava/util/List<Lnet/minecraft/util/Vec3;>;",
		MapSignature("Ljava/util/List<La;>;", mapClass))
	assert.Equal(t,
		"(TT;)Lnet/minecraft/util/Vec3;",
		MapSignature("(TT;)La;", mapClass))
	assert.Equal(t,
		"<T:Lnet/minecraft/util/Vec3;>(TT;)V",
		MapSignature("<T:La;>(TT;)V", mapClass))
	assert.Equal(t,
		"Lb<TT;>.c;",
		MapSignature("Lb<TT;>.c;", func(n string) string { return n }))
	assert.Equal(t,
		"Lnet/minecraft/world/World<TT;>.Chunk;",
		MapSignature("Lb<TT;>.c;", mapClass))
}

func TestParseInnerClassTable(t *testing.T) {
	doc := []byte(`{
		"net/minecraft/world/World$1": {
			"enclosingMethod": {"owner": "net/minecraft/world/World", "name": "tick", "desc": "()V"},
			"innerClasses": [
				{"inner_class": "net/minecraft/world/World$1", "access": "8"}
			]
		},
		"net/minecraft/util/Vec3$Builder": {
			"innerClasses": [
				{"inner_class": "net/minecraft/util/Vec3$Builder",
				 "outer_class": "net/minecraft/util/Vec3",
				 "inner_name": "Builder",
				 "access": "9"}
			]
		}
	}`)
	table, err := ParseInnerClassTable(doc)
	require.NoError(t, err)

	info, ok := table.Lookup("net/minecraft/world/World$1")
	require.True(t, ok)
	require.NotNil(t, info.EnclosingMethod)
	assert.Equal(t, "tick", info.EnclosingMethod.Name)
	require.Len(t, info.InnerClasses, 1)
	assert.Equal(t, uint16(8), info.InnerClasses[0].Access)

	info, ok = table.Lookup("net/minecraft/util/Vec3$Builder")
	require.True(t, ok)
	assert.Nil(t, info.EnclosingMethod)
	assert.Equal(t, "Builder", info.InnerClasses[0].InnerName)
	assert.Equal(t, uint16(9), info.InnerClasses[0].Access)

	_, ok = table.Lookup("net/minecraft/util/Vec3")
	assert.False(t, ok)
}
