package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrManifestNotFound is returned when a directory holds none of ManifestFileNames.
var ErrManifestNotFound = errors.New("manifest file not found")

// ParseContent decodes and schema-validates manifest content.
// Any schema violation fails the whole parse; no partial manifest is returned.
func ParseContent(data []byte) ParseResult {
	if len(bytes.TrimSpace(data)) == 0 {
		return failed("manifest is empty")
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return failed(fmt.Sprintf("invalid YAML: %v", err))
	}
	if _, ok := normalizeYAML(doc).(map[string]interface{}); !ok {
		return failed("manifest must be a mapping")
	}

	issues, err := validateSchema(doc)
	if err != nil {
		return failed(err.Error())
	}
	if len(issues) > 0 {
		errs := make([]string, 0, len(issues))
		for _, is := range issues {
			errs = append(errs, is.String())
		}
		return ParseResult{Errors: errs}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return failed(fmt.Sprintf("decode manifest: %v", err))
	}

	return ParseResult{
		Success:  true,
		Manifest: &m,
		Warnings: lint(&m),
	}
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) ParseResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(fmt.Sprintf("read manifest %s: %v", path, err))
	}
	return ParseContent(data)
}

// ParseFromDirectory parses the first canonical manifest file found in dir.
func ParseFromDirectory(dir string) ParseResult {
	path, err := FindFile(dir)
	if err != nil {
		return failed(err.Error())
	}
	return ParseFile(path)
}

// FindFile returns the path of the first of ManifestFileNames present in dir.
func FindFile(dir string) (string, error) {
	for _, name := range ManifestFileNames {
		p := filepath.Join(dir, name)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s (tried %s)", ErrManifestNotFound, dir, strings.Join(ManifestFileNames, ", "))
}

func failed(msg string) ParseResult {
	return ParseResult{Errors: []string{msg}}
}

// lint reports non-fatal omissions.
func lint(m *Manifest) []string {
	var warnings []string
	if m.Description == "" {
		warnings = append(warnings, "description is empty")
	}
	if m.NubabelVersion == "" {
		warnings = append(warnings, "nubabelVersion is not set; host compatibility is not checked")
	}
	for _, r := range m.Components.Routes {
		if r.Method == "" {
			warnings = append(warnings, fmt.Sprintf("route %s has no method; GET is assumed", r.Path))
		}
	}
	return warnings
}
