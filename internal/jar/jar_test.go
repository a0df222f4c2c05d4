package jar

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func buildArchive(t *testing.T, entries map[string][]byte, order []string) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return zr
}

func readArchive(t *testing.T, data []byte) ([]string, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	contents := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b := new(bytes.Buffer)
		_, err = b.ReadFrom(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		names = append(names, f.Name)
		contents[f.Name] = b.Bytes()
	}
	return names, contents
}

func TestRewriteTransformsClassesAndCopiesResources(t *testing.T) {
	zr := buildArchive(t, map[string][]byte{
		"a.class":     []byte("class-a"),
		"b.class":     []byte("class-b"),
		"log4j2.xml":  []byte("<xml/>"),
		"assets/icon": []byte{1, 2, 3},
	}, []string{"a.class", "b.class", "log4j2.xml", "assets/icon"})

	rw := NewRewriter(Rules{}, zaptest.NewLogger(t))
	var out bytes.Buffer
	err := rw.Rewrite(context.Background(), zr, &out, func(name string, data []byte) (string, []byte, error) {
		return "", append(data, '!'), nil
	})
	require.NoError(t, err)

	_, contents := readArchive(t, out.Bytes())
	assert.Equal(t, []byte("class-a!"), contents["a.class"])
	assert.Equal(t, []byte("class-b!"), contents["b.class"])
	assert.Equal(t, []byte("<xml/>"), contents["log4j2.xml"], "resources pass through untouched")
	assert.Equal(t, []byte{1, 2, 3}, contents["assets/icon"])
}

func TestRewritePreservesEntryOrder(t *testing.T) {
	entries := map[string][]byte{}
	var order []string
	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("pkg/C%02d.class", i)
		entries[name] = []byte{byte(i)}
		order = append(order, name)
	}
	zr := buildArchive(t, entries, order)

	rw := &Rewriter{Workers: 8, Logger: zaptest.NewLogger(t)}
	var out bytes.Buffer
	err := rw.Rewrite(context.Background(), zr, &out, func(name string, data []byte) (string, []byte, error) {
		return "", data, nil
	})
	require.NoError(t, err)

	names, _ := readArchive(t, out.Bytes())
	assert.Equal(t, order, names)
}

func TestRewriteAppliesRules(t *testing.T) {
	zr := buildArchive(t, map[string][]byte{
		"net/minecraft/A.class": []byte("keep"),
		"org/apache/B.class":    []byte("bundled dependency"),
		"assets/lang/en.json":   []byte("{}"),
		"README.txt":            []byte("drop me"),
	}, []string{"net/minecraft/A.class", "org/apache/B.class", "assets/lang/en.json", "README.txt"})

	rules := Rules{
		ExcludeClassPrefixes:    []string{"com/", "io/", "it/", "javax/", "org/"},
		IncludeResourcePrefixes: []string{"assets/", "log4j2.xml", "yggdrasil_session_pubkey.der"},
	}
	rw := NewRewriter(rules, zaptest.NewLogger(t))
	var out bytes.Buffer
	err := rw.Rewrite(context.Background(), zr, &out, func(name string, data []byte) (string, []byte, error) {
		return "", data, nil
	})
	require.NoError(t, err)

	names, _ := readArchive(t, out.Bytes())
	assert.Equal(t, []string{"net/minecraft/A.class", "assets/lang/en.json"}, names)
}

func TestRewriteAbortsOnTransformError(t *testing.T) {
	zr := buildArchive(t, map[string][]byte{
		"a.class": []byte("ok"),
		"b.class": []byte("bad"),
		"c.class": []byte("ok"),
	}, []string{"a.class", "b.class", "c.class"})

	boom := errors.New("malformed class")
	rw := &Rewriter{Workers: 2, Logger: zaptest.NewLogger(t)}
	var out bytes.Buffer
	err := rw.Rewrite(context.Background(), zr, &out, func(name string, data []byte) (string, []byte, error) {
		if name == "b.class" {
			return "", nil, boom
		}
		return "", data, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "b.class")
}

func TestRewriteHonorsCancellation(t *testing.T) {
	zr := buildArchive(t, map[string][]byte{"a.class": []byte("x")}, []string{"a.class"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rw := NewRewriter(Rules{}, zaptest.NewLogger(t))
	var out bytes.Buffer
	err := rw.Rewrite(ctx, zr, &out, func(name string, data []byte) (string, []byte, error) {
		return "", data, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRewriteRenamesEntries(t *testing.T) {
	zr := buildArchive(t, map[string][]byte{
		"a.class":    []byte("class-a"),
		"log4j2.xml": []byte("<xml/>"),
	}, []string{"a.class", "log4j2.xml"})

	rw := NewRewriter(Rules{}, zaptest.NewLogger(t))
	var out bytes.Buffer
	err := rw.Rewrite(context.Background(), zr, &out, func(name string, data []byte) (string, []byte, error) {
		return "net/minecraft/util/Vec3.class", data, nil
	})
	require.NoError(t, err)

	names, contents := readArchive(t, out.Bytes())
	assert.Equal(t, []string{"net/minecraft/util/Vec3.class", "log4j2.xml"}, names)
	assert.Equal(t, []byte("class-a"), contents["net/minecraft/util/Vec3.class"])
}

func TestRulesZeroValueKeepsEverything(t *testing.T) {
	var rules Rules
	assert.True(t, rules.KeepClass("org/apache/B.class"))
	assert.True(t, rules.KeepResource("anything.txt"))
}
