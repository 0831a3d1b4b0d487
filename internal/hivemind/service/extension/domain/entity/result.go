package entity

import (
	"fmt"
	"strings"
)

// LoadResult is returned by every load entry point. Extension is set only on success.
type LoadResult struct {
	Success   bool             `json:"success"`
	Extension *LoadedExtension `json:"extension,omitempty"`
	Errors    []string         `json:"errors,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// UnloadResult is returned by Unload.
type UnloadResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// DependencyErrorKind classifies a dependency failure.
type DependencyErrorKind string

const (
	DependencyMissing         DependencyErrorKind = "missing"
	DependencyVersionMismatch DependencyErrorKind = "version_mismatch"
	DependencyCircular        DependencyErrorKind = "circular"
)

// DependencyError describes one unresolved dependency.
type DependencyError struct {
	Kind       DependencyErrorKind `json:"kind"`
	Dependency string              `json:"dependency"`
	Message    string              `json:"message"`
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s (%s): %s", e.Dependency, e.Kind, e.Message)
}

// ValidationError collects manifest or path validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// ComponentLoadError reports a component that could not be materialised.
type ComponentLoadError struct {
	Kind string
	ID   string
	Err  error
}

func (e *ComponentLoadError) Error() string {
	return fmt.Sprintf("failed to load %s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *ComponentLoadError) Unwrap() error { return e.Err }
