package scaffold

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/BurntSushi/toml"
)

// DefaultPackageName is the package the scaffold names when nothing else is configured.
const DefaultPackageName = "helloworld"

// Params are the values substituted into templates.
type Params struct {
	PackageName string
}

// Template is a named payload. Body is a text/template source.
type Template struct {
	Name string
	Body string
	// Validate, when set, checks the rendered bytes before anything is written.
	Validate func([]byte) error
}

// ManifestTemplate renders a minimal Cargo manifest with a size-optimized release profile.
var ManifestTemplate = Template{
	Name: "manifest",
	Body: `
[package]
name = "{{.PackageName}}"
version = "0.1.0"
edition = "2021"

[dependencies]

[profile.release]
lto = true
opt-level = "s"
codegen-units = 1
panic = "abort"
strip = "symbols"
`,
	Validate: ValidateManifest,
}

// ProgramTemplate renders a program that prints a fixed greeting.
var ProgramTemplate = Template{
	Name: "program",
	Body: `
fn main() {
    println!("Hello, world! from web");
}`,
}

// Render executes t with p.
func Render(t Template, p Params) ([]byte, error) {
	if p.PackageName == "" {
		return nil, fmt.Errorf("template %s: package name is empty", t.Name)
	}

	tmpl, err := template.New(t.Name).Option("missingkey=error").Parse(t.Body)
	if err != nil {
		return nil, fmt.Errorf("template %s: parse: %w", t.Name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("template %s: execute: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// Manifest is the subset of the manifest checked after rendering.
type Manifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Edition string `toml:"edition"`
	} `toml:"package"`
	Profile struct {
		Release struct {
			LTO          bool   `toml:"lto"`
			OptLevel     string `toml:"opt-level"`
			CodegenUnits int    `toml:"codegen-units"`
			Panic        string `toml:"panic"`
			Strip        string `toml:"strip"`
		} `toml:"release"`
	} `toml:"profile"`
}

// ParseManifest decodes a rendered manifest.
func ParseManifest(body []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(body), &m); err != nil {
		return nil, fmt.Errorf("manifest is not valid TOML: %w", err)
	}
	return &m, nil
}

// ValidateManifest rejects manifests that do not parse or lack a package name.
func ValidateManifest(body []byte) error {
	m, err := ParseManifest(body)
	if err != nil {
		return err
	}
	if m.Package.Name == "" {
		return fmt.Errorf("manifest has no package name")
	}
	return nil
}
