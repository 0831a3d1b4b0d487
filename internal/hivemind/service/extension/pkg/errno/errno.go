// Package errno declares the sentinel errors of the extension module.
package errno

import "errors"

var (
	ErrExtensionNotFound = errors.New("extension not found")
	ErrAlreadyLoaded     = errors.New("extension already loaded")
	ErrDirectoryNotFound = errors.New("extension directory not found")
	ErrPackageNotFound   = errors.New("package resolution failed")
	ErrIncompatibleHost  = errors.New("incompatible host version")
	ErrNoHandlerExport   = errors.New("module exposes no recognised handler export")
	ErrLoadTimeout       = errors.New("extension load timed out")
	ErrRecordNotFound    = errors.New("record not found")
)
