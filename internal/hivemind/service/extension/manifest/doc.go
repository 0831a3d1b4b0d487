// Package manifest parses and validates extension manifests.
//
// A manifest is YAML validated against the JSON schema embedded in
// schema/manifest.schema.json before it is decoded into a Manifest. The package
// also checks that referenced files exist, rewrites relative paths to absolute
// ones, evaluates version ranges and merges partial manifest updates.
package manifest
