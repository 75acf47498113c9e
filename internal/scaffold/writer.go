// Package scaffold renders the files that bootstrap a new project and writes
// them to disk as a unit: either every file is written, or the ones already
// written by the failing call are put back the way they were.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Operations reported by WriteError.
const (
	OpRender   = "render"
	OpValidate = "validate"
	OpOpen     = "open"
	OpWrite    = "write"
	OpSync     = "sync"
)

// WriteError reports which file failed and at which step.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("scaffold %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// File pairs an output path with the template rendered into it.
type File struct {
	Path     string
	Template Template
}

// DefaultPlan writes the manifest to manifestPath and the program to programPath.
func DefaultPlan(manifestPath, programPath string) []File {
	return []File{
		{Path: manifestPath, Template: ManifestTemplate},
		{Path: programPath, Template: ProgramTemplate},
	}
}

// Writer renders and writes scaffold files.
type Writer struct {
	params Params
	log    *zap.Logger
}

// NewWriter creates a Writer. A nil logger discards output.
func NewWriter(params Params, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{params: params, log: log}
}

// prior is what a path held before this call touched it.
type prior struct {
	path    string
	existed bool
	content []byte
	mode    fs.FileMode
}

// Write renders every file, then writes them in order, creating or truncating
// each one. If any file fails, files written earlier in the call are restored
// and the failure is returned.
func (w *Writer) Write(ctx context.Context, files []File) error {
	bodies := make([][]byte, len(files))
	for i, f := range files {
		body, err := Render(f.Template, w.params)
		if err != nil {
			return &WriteError{Path: f.Path, Op: OpRender, Err: err}
		}
		if f.Template.Validate != nil {
			if err := f.Template.Validate(body); err != nil {
				return &WriteError{Path: f.Path, Op: OpValidate, Err: err}
			}
		}
		bodies[i] = body
	}

	var touched []prior
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return w.rollback(touched, err)
		}

		p, err := snapshot(f.Path)
		if err != nil {
			return w.rollback(touched, &WriteError{Path: f.Path, Op: OpOpen, Err: err})
		}

		opened, err := writeFile(f.Path, bodies[i])
		if opened {
			touched = append(touched, p)
		}
		if err != nil {
			return w.rollback(touched, err)
		}

		w.log.Debug("wrote scaffold file",
			zap.String("path", f.Path),
			zap.String("template", f.Template.Name),
			zap.Int("bytes", len(bodies[i])))
	}

	return nil
}

// snapshot records what path holds now so it can be restored.
func snapshot(path string) (prior, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return prior{path: path}, nil
	}
	if err != nil {
		return prior{}, err
	}
	if info.IsDir() {
		return prior{}, errors.New("is a directory")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return prior{}, err
	}
	return prior{path: path, existed: true, content: content, mode: info.Mode().Perm()}, nil
}

// writeFile reports whether the file was opened (and so possibly modified).
func writeFile(path string, body []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return false, &WriteError{Path: path, Op: OpOpen, Err: err}
	}

	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return true, &WriteError{Path: path, Op: OpWrite, Err: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return true, &WriteError{Path: path, Op: OpSync, Err: err}
	}
	if err := f.Close(); err != nil {
		return true, &WriteError{Path: path, Op: OpWrite, Err: err}
	}
	return true, nil
}

// rollback restores touched paths in reverse order and folds any failure into cause.
func (w *Writer) rollback(touched []prior, cause error) error {
	err := cause
	for i := len(touched) - 1; i >= 0; i-- {
		p := touched[i]
		var rerr error
		if p.existed {
			rerr = os.WriteFile(p.path, p.content, p.mode)
		} else {
			rerr = os.Remove(p.path)
			if errors.Is(rerr, fs.ErrNotExist) {
				rerr = nil
			}
		}
		if rerr != nil {
			w.log.Warn("failed to restore scaffold file", zap.String("path", p.path), zap.Error(rerr))
			err = multierr.Append(err, fmt.Errorf("restore %s: %w", p.path, rerr))
			continue
		}
		w.log.Debug("restored scaffold file", zap.String("path", p.path), zap.Bool("existed", p.existed))
	}
	return err
}
