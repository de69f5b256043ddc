// Package config loads the editor's TOML configuration file and
// resolves its named colour palette into concrete SGR attributes.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/gojtx/jtx/internal/terminal"
)

// Config is the raw, unresolved shape of $HOME/.config/jtx/config.
type Config struct {
	Misc    ConfigMisc          `toml:"misc"`
	Palette map[string]Colour   `toml:"palette"`
	UI      ConfigUI            `toml:"ui"`
}

// ConfigMisc holds the [misc] table.
type ConfigMisc struct {
	TabSize int `toml:"tab-size"`
}

// ConfigUI holds the [ui.*] tables, one per drawable region.
type ConfigUI struct {
	Default  ConfigTextAttr `toml:"default"`
	Header   ConfigTextAttr `toml:"header"`
	Status   ConfigTextAttr `toml:"status"`
	LineNums ConfigTextAttr `toml:"line-nums"`
}

// ConfigTextAttr names palette entries by reference; Bold defaults to
// false via the zero value, matching the original's #[serde(default)].
type ConfigTextAttr struct {
	Fg   string `toml:"fg"`
	Bg   string `toml:"bg"`
	Bold bool   `toml:"bold"`
}

// Colour is a 24-bit RGB colour parsed from a "#RRGGBB" TOML string.
type Colour struct {
	Red, Green, Blue uint8
}

// UnmarshalText enforces the exact "#RRGGBB" contract: a '#' prefix
// followed by exactly six hex digits, nothing more or less.
func (c *Colour) UnmarshalText(text []byte) error {
	src := string(text)
	if len(src) != 7 || src[0] != '#' {
		return fmt.Errorf("invalid colour %q: expected '#' and six hex digits", src)
	}
	for _, ch := range src[1:] {
		if !isHexDigit(ch) {
			return fmt.Errorf("invalid colour %q: expected '#' and six hex digits", src)
		}
	}
	r, err := parseHexByte(src[1:3])
	if err != nil {
		return fmt.Errorf("invalid colour %q: %w", src, err)
	}
	g, err := parseHexByte(src[3:5])
	if err != nil {
		return fmt.Errorf("invalid colour %q: %w", src, err)
	}
	b, err := parseHexByte(src[5:7])
	if err != nil {
		return fmt.Errorf("invalid colour %q: %w", src, err)
	}
	c.Red, c.Green, c.Blue = r, g, b
	return nil
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func parseHexByte(s string) (uint8, error) {
	var v uint8
	for _, ch := range s {
		v <<= 4
		switch {
		case ch >= '0' && ch <= '9':
			v |= uint8(ch - '0')
		case ch >= 'a' && ch <= 'f':
			v |= uint8(ch-'a') + 10
		case ch >= 'A' && ch <= 'F':
			v |= uint8(ch-'A') + 10
		}
	}
	return v, nil
}

// DefaultPath returns $HOME/.config/jtx/config.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "jtx", "config"), nil
}

// Load reads and parses the TOML config at path. A missing file is a
// fatal error here, not a soft default: the caller is expected to
// surface it as a startup failure.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	return &cfg, nil
}

// ResolveAttrs substitutes each UI attribute's fg/bg palette name with
// its literal Colour, once at load time, so the render path never does
// a map lookup. A UI attribute naming a palette entry that does not
// exist is a fatal startup error.
func (c *Config) ResolveAttrs() (terminal.UIAttrs, error) {
	resolve := func(label string, a ConfigTextAttr) (terminal.Attr, error) {
		fg, ok := c.Palette[a.Fg]
		if !ok {
			return terminal.Attr{}, fmt.Errorf("config: ui.%s: unknown palette colour %q", label, a.Fg)
		}
		bg, ok := c.Palette[a.Bg]
		if !ok {
			return terminal.Attr{}, fmt.Errorf("config: ui.%s: unknown palette colour %q", label, a.Bg)
		}
		return terminal.Attr{
			Fg:   terminal.Colour{R: fg.Red, G: fg.Green, B: fg.Blue},
			Bg:   terminal.Colour{R: bg.Red, G: bg.Green, B: bg.Blue},
			Bold: a.Bold,
		}, nil
	}

	var attrs terminal.UIAttrs
	var err error
	if attrs.Default, err = resolve("default", c.UI.Default); err != nil {
		return terminal.UIAttrs{}, err
	}
	if attrs.Header, err = resolve("header", c.UI.Header); err != nil {
		return terminal.UIAttrs{}, err
	}
	if attrs.Status, err = resolve("status", c.UI.Status); err != nil {
		return terminal.UIAttrs{}, err
	}
	if attrs.LineNums, err = resolve("line-nums", c.UI.LineNums); err != nil {
		return terminal.UIAttrs{}, err
	}
	return attrs, nil
}
