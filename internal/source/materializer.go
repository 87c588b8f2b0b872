// Package source materializes in-memory instrumented source units into
// files a compiler can read.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"traceval/internal/domain/eval"
)

const (
	instrumentedSuffix = "$instrumented"
	sourceExtension    = ".go"
)

// MaterializedSource points at the source file written for one evaluation.
type MaterializedSource struct {
	FilePath        string
	EntrySimpleName string
}

// EntrySimpleName returns the text after the last dot of a fully qualified
// entry point name, or the whole name when it has no dots.
func EntrySimpleName(entryPointFullName string) string {
	if idx := strings.LastIndexByte(entryPointFullName, '.'); idx >= 0 {
		return entryPointFullName[idx+1:]
	}
	return entryPointFullName
}

// InstrumentedPath returns the file path Materialize writes for the given
// entry point. Two evaluations collide exactly when their paths are equal.
func InstrumentedPath(workingDir, entryPointFullName string) string {
	return filepath.Join(workingDir, EntrySimpleName(entryPointFullName)+instrumentedSuffix+sourceExtension)
}

// Materialize writes the instrumented source for entryPointFullName into
// workingDir, naming the file after the entry point's simple name (the text
// after the last dot). An existing file of the same name is overwritten in
// place. The file persists after the evaluation finishes; nothing in this
// package deletes it.
//
// Concurrent materializations sharing a simple name would clobber each
// other, so callers serialize evaluations per entry name.
func Materialize(workingDir, entryPointFullName, src string) (MaterializedSource, error) {
	simple := EntrySimpleName(entryPointFullName)
	if simple == "" {
		return MaterializedSource{}, fmt.Errorf("entry point %q has no simple name", entryPointFullName)
	}
	if strings.ContainsAny(simple, `/\`) {
		return MaterializedSource{}, fmt.Errorf("entry point simple name %q must not contain path separators", simple)
	}

	path := InstrumentedPath(workingDir, entryPointFullName)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return MaterializedSource{}, &eval.IOError{Op: "write instrumented source", Path: path, Err: err}
	}

	return MaterializedSource{FilePath: path, EntrySimpleName: simple}, nil
}
