package gofront

import (
	"bytes"
	"fmt"
	"go/importer"
	"go/token"
	"go/types"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/gcexportdata"

	"traceval/internal/domain/eval"
)

const artifactExtension = ".x"

// emitArtifact encodes the checked package as gc export data and places it
// in the configured output directory, or in the report's in-memory handle
// when no directory is configured.
func (d *Driver) emitArtifact(cfg settings, fset *token.FileSet, pkg *types.Package, report *eval.CompilationReport) error {
	var buf bytes.Buffer
	if err := gcexportdata.Write(&buf, fset, pkg); err != nil {
		return &eval.CompilerInvocationError{Err: fmt.Errorf("encode export data: %w", err)}
	}

	name := pkg.Name() + artifactExtension
	if cfg.outputDir == "" {
		report.Output = &eval.Artifact{Name: name, Data: buf.Bytes()}
		return nil
	}

	if err := os.MkdirAll(cfg.outputDir, 0o755); err != nil {
		return &eval.CompilerInvocationError{Err: err}
	}
	if err := os.WriteFile(filepath.Join(cfg.outputDir, name), buf.Bytes(), 0o644); err != nil {
		return &eval.CompilerInvocationError{Err: err}
	}

	return nil
}

// searchPathImporter resolves imports from export-data files on the compile
// search path, falling back to the host toolchain's packages for everything
// else (the standard library in practice). Each compile call gets its own
// importer so no package state is shared between runs.
type searchPathImporter struct {
	fset     *token.FileSet
	dirs     []string
	imports  map[string]*types.Package
	fallback types.Importer
}

func newSearchPathImporter(fset *token.FileSet, dirs []string) *searchPathImporter {
	return &searchPathImporter{
		fset:     fset,
		dirs:     dirs,
		imports:  make(map[string]*types.Package),
		fallback: importer.ForCompiler(fset, "source", nil),
	}
}

func (im *searchPathImporter) Import(path string) (*types.Package, error) {
	if pkg, ok := im.imports[path]; ok && pkg.Complete() {
		return pkg, nil
	}

	name := filepath.FromSlash(path) + artifactExtension
	for _, dir := range im.dirs {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("open export data for %q: %w", path, err)
		}

		pkg, err := gcexportdata.Read(f, im.fset, im.imports, path)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read export data for %q: %w", path, err)
		}
		return pkg, nil
	}

	return im.fallback.Import(path)
}
