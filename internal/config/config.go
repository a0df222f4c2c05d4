// Package config loads and validates the generation configuration. Every
// field is checked for presence and format before any pipeline work starts,
// so a bad configuration never costs a download or a decompile.
package config

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// versionPattern constrains version identifiers to characters that are safe
// inside artifact coordinates and filesystem paths.
var versionPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Config is the root configuration document.
type Config struct {
	GameVersion string `hcl:"game_version"`
	SRGVersion  string `hcl:"srg_version"`
	MCPVersion  string `hcl:"mcp_version"`

	PatchDirectory  string `hcl:"patch_directory"`
	OutputDirectory string `hcl:"output_directory"`

	AccessTransformations string `hcl:"access_transformations,optional"`
	Encoding              string `hcl:"encoding,optional"`
	StoreDirectory        string `hcl:"store_directory,optional"`
	LibraryCacheDirectory string `hcl:"library_cache_directory,optional"`
	Workers               int    `hcl:"workers,optional"`

	SRGURL string `hcl:"srg_url,optional"`
	MCPURL string `hcl:"mcp_url,optional"`

	Decompiler *Decompiler `hcl:"decompiler,block"`
	Formatter  *Formatter  `hcl:"formatter,block"`
}

// Decompiler locates the external decompiler.
type Decompiler struct {
	JavaPath string `hcl:"java,optional"`
	Jar      string `hcl:"jar"`
}

// Formatter locates the external source formatter.
type Formatter struct {
	Command string   `hcl:"command"`
	Args    []string `hcl:"args,optional"`
}

// Default download location templates. The SRG template takes the SRG
// version once; the MCP template takes channel and version alternating.
const (
	DefaultSRGURL = "https://files.minecraftforge.net/maven/de/oceanlabs/mcp/mcp/%[1]s/mcp-%[1]s-srg.zip"
	DefaultMCPURL = "http://export.mcpbot.bspk.rs/mcp_%[1]s/%[2]s/mcp_%[1]s-%[2]s.zip"
)

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("load configuration %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Encoding == "" {
		c.Encoding = "UTF-8"
	}
	if c.SRGURL == "" {
		c.SRGURL = DefaultSRGURL
	}
	if c.MCPURL == "" {
		c.MCPURL = DefaultMCPURL
	}
}

// Validate checks presence and format of every required field.
func (c *Config) Validate() error {
	for _, field := range []struct {
		name, value string
	}{
		{"game_version", c.GameVersion},
		{"srg_version", c.SRGVersion},
		{"mcp_version", c.MCPVersion},
	} {
		if field.value == "" {
			return fmt.Errorf("configuration: %s is required", field.name)
		}
		if !versionPattern.MatchString(field.value) {
			return fmt.Errorf("configuration: %s %q is not a valid version identifier", field.name, field.value)
		}
	}
	if c.PatchDirectory == "" {
		return fmt.Errorf("configuration: patch_directory is required")
	}
	if c.OutputDirectory == "" {
		return fmt.Errorf("configuration: output_directory is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("configuration: workers must not be negative")
	}
	if _, err := c.TextEncoding(); err != nil {
		return err
	}
	return nil
}

// TextEncoding resolves the configured charset name.
func (c *Config) TextEncoding() (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(c.Encoding)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("configuration: unsupported encoding %q", c.Encoding)
	}
	return enc, nil
}
