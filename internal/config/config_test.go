package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reforge.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
game_version    = "1.12.2"
srg_version     = "1.12.2"
mcp_version     = "39-1.12"
patch_directory = "patches"
output_directory = "src/minecraft"

decompiler {
  jar = "tools/fernflower.jar"
}

formatter {
  command = "google-java-format"
  args    = ["-"]
}
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "1.12.2", cfg.GameVersion)
	assert.Equal(t, "39-1.12", cfg.MCPVersion)
	assert.Equal(t, "UTF-8", cfg.Encoding, "encoding defaults to UTF-8")
	assert.Equal(t, DefaultSRGURL, cfg.SRGURL)
	require.NotNil(t, cfg.Decompiler)
	assert.Equal(t, "tools/fernflower.jar", cfg.Decompiler.Jar)
	require.NotNil(t, cfg.Formatter)
	assert.Equal(t, []string{"-"}, cfg.Formatter.Args)

	enc, err := cfg.TextEncoding()
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	_, err := Load(writeConfig(t, `
game_version    = "1.12.2"
srg_version     = "1.12.2"
mcp_version     = "39-1.12"
patch_directory = "patches"
`))
	assert.Error(t, err)
}

func TestValidateVersionFormat(t *testing.T) {
	cfg := &Config{
		GameVersion:     "1.12.2/../../etc",
		SRGVersion:      "1.12.2",
		MCPVersion:      "39-1.12",
		PatchDirectory:  "patches",
		OutputDirectory: "out",
	}
	cfg.applyDefaults()
	err := cfg.Validate()
	assert.ErrorContains(t, err, "game_version")
	assert.ErrorContains(t, err, "not a valid version identifier")
}

func TestValidateEncoding(t *testing.T) {
	cfg := &Config{
		GameVersion:     "1.12.2",
		SRGVersion:      "1.12.2",
		MCPVersion:      "39-1.12",
		PatchDirectory:  "patches",
		OutputDirectory: "out",
		Encoding:        "no-such-charset",
	}
	cfg.applyDefaults()
	assert.ErrorContains(t, cfg.Validate(), "unsupported encoding")

	cfg.Encoding = "ISO-8859-1"
	require.NoError(t, cfg.Validate())
	enc, err := cfg.TextEncoding()
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestValidateWorkers(t *testing.T) {
	cfg := &Config{
		GameVersion:     "1.12.2",
		SRGVersion:      "1.12.2",
		MCPVersion:      "39-1.12",
		PatchDirectory:  "patches",
		OutputDirectory: "out",
		Workers:         -1,
	}
	cfg.applyDefaults()
	assert.ErrorContains(t, cfg.Validate(), "workers")
}
