package gofront

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"os"
	"path/filepath"

	"traceval/internal/domain/eval"
)

// check runs one front-end pass over freshly parsed settings. A panic inside
// the front end is recovered into a CompilerInvocationError so a compiler
// defect cannot take the evaluator down with it.
func (d *Driver) check(cfg settings) (report *eval.CompilationReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = &eval.CompilerInvocationError{Err: fmt.Errorf("compiler panic: %v", r)}
		}
	}()

	src, readErr := os.ReadFile(cfg.sourcePath)
	if readErr != nil {
		return nil, &eval.CompilerInvocationError{Err: readErr}
	}

	report = &eval.CompilationReport{}
	if cfg.verbose {
		report.Diagnostics = append(report.Diagnostics, eval.Diagnostic{
			Severity: eval.SeverityInfo,
			Message:  fmt.Sprintf("compiling %s", filepath.Base(cfg.sourcePath)),
		})
	}

	fset := token.NewFileSet()
	file, parseErr := parser.ParseFile(fset, cfg.sourcePath, src, parser.AllErrors|parser.SkipObjectResolution)
	if parseErr != nil {
		var list scanner.ErrorList
		if !errors.As(parseErr, &list) {
			return nil, &eval.CompilerInvocationError{Err: parseErr}
		}
		for _, e := range list {
			report.Diagnostics = append(report.Diagnostics, eval.Diagnostic{
				Severity: eval.SeverityError,
				Message:  e.Msg,
				Position: &eval.Position{Line: e.Pos.Line, Column: e.Pos.Column},
			})
		}
		// The AST is partial after a parse error; type-checking it would
		// only add cascading noise.
		return report, nil
	}

	reported := 0
	conf := types.Config{
		Error: func(e error) {
			reported++
			terr, ok := e.(types.Error)
			if !ok {
				report.Diagnostics = append(report.Diagnostics, eval.Diagnostic{
					Severity: eval.SeverityError,
					Message:  e.Error(),
				})
				return
			}
			severity := eval.SeverityError
			if terr.Soft {
				// Soft findings (unused variables and imports) are routine
				// in worksheet scratch code and must not block the run.
				severity = eval.SeverityWarning
			}
			pos := fset.Position(terr.Pos)
			report.Diagnostics = append(report.Diagnostics, eval.Diagnostic{
				Severity: severity,
				Message:  terr.Msg,
				Position: &eval.Position{Line: pos.Line, Column: pos.Column},
			})
		},
		Importer: newSearchPathImporter(fset, cfg.classpath),
	}

	pkg, checkErr := conf.Check(file.Name.Name, fset, []*ast.File{file}, nil)
	if checkErr != nil && reported == 0 {
		// The checker bailed out without reporting through the callback.
		return nil, &eval.CompilerInvocationError{Err: checkErr}
	}
	if report.HasErrors() {
		return report, nil
	}

	if err := d.emitArtifact(cfg, fset, pkg, report); err != nil {
		return nil, err
	}

	return report, nil
}
