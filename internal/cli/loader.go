package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/google/uuid"

	"github.com/roach88/kvquery/internal/schema"
	"github.com/roach88/kvquery/internal/value"
)

// A fixture is CUE with a schema and, optionally, rows:
//
//	schema: {
//		entity: "product"
//		fields: [{name: "id", kind: "uint"}, {name: "level", kind: "int"}]
//		primary_key: ["id"]
//		indexes: [{name: "by_level", fields: ["level"]}]
//	}
//	rows: [{id: 1, level: 2}]
//
// A ulid field written as "auto" gets a fresh time-ordered id.

// AutoID is the placeholder replaced by a generated ulid.
const AutoID = "auto"

// Fixture is a loaded, typed fixture.
type Fixture struct {
	Schema    *schema.Schema
	Rows      []schema.Record
	FileCount int // Number of CUE files read
}

// LoadError represents an error that occurred during fixture loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadFixture reads a fixture from a .cue file or a directory holding one
// CUE package.
func LoadFixture(path string) (*Fixture, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "no fixture given (use --fixture)"}
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("fixture not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing fixture: %v", err)}
	}

	ctx := cuecontext.New()
	var v cue.Value
	fileCount := 1

	if info.IsDir() {
		cueFiles, err := FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(cueFiles) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
		fileCount = len(cueFiles)

		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
		}
		if inst := instances[0]; inst.Err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
		}
		v = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading fixture: %v", err)}
		}
		v = ctx.CompileBytes(data, cue.Filename(path))
	}

	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	s, err := decodeSchema(v.LookupPath(cue.ParsePath("schema")))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(s, v.LookupPath(cue.ParsePath("rows")))
	if err != nil {
		return nil, err
	}
	return &Fixture{Schema: s, Rows: rows, FileCount: fileCount}, nil
}

func decodeSchema(v cue.Value) (*schema.Schema, error) {
	if !v.Exists() {
		return nil, &LoadError{Code: ErrCodeInvalidSchema, Message: "fixture has no schema"}
	}
	var s schema.Schema
	if err := v.Decode(&s); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidSchema, Message: err.Error(), Pos: v.Pos()}
	}
	if err := s.Resolve(); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidSchema, Message: err.Error(), Pos: v.Pos()}
	}
	return &s, nil
}

func decodeRows(s *schema.Schema, v cue.Value) ([]schema.Record, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidRow, Message: fmt.Sprintf("rows must be a list: %v", err), Pos: v.Pos()}
	}

	var out []schema.Record
	for i := 0; iter.Next(); i++ {
		rv := iter.Value()
		data, err := rv.MarshalJSON()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidRow, Message: fmt.Sprintf("rows[%d]: %v", i, err), Pos: rv.Pos()}
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidRow, Message: fmt.Sprintf("rows[%d]: %v", i, err), Pos: rv.Pos()}
		}
		if err := fillAutoIDs(s, raw); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidRow, Message: fmt.Sprintf("rows[%d]: %v", i, err), Pos: rv.Pos()}
		}
		r, err := s.RecordFromNative(raw)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidRow, Message: fmt.Sprintf("rows[%d]: %v", i, err), Pos: rv.Pos()}
		}
		out = append(out, r)
	}
	return out, nil
}

// fillAutoIDs replaces AutoID in ulid fields with a UUIDv7, whose leading
// timestamp keeps generated keys in insertion order.
func fillAutoIDs(s *schema.Schema, raw map[string]any) error {
	for _, f := range s.Fields {
		if f.Kind != value.KindUlid || raw[f.Name] != AutoID {
			continue
		}
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		raw[f.Name] = id.String()
	}
	return nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// Error code constants - unified across all CLI commands. Query validation
// failures use the filter package's codes instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Store write error

	ErrCodeInvalidSchema = "E101" // Schema missing or malformed
	ErrCodeInvalidRow    = "E102" // Row does not fit the schema
	ErrCodeBadDocument   = "E110" // Filter document does not parse
	ErrCodeBadArgument   = "E111" // Flag or argument value rejected
	ErrCodeStore         = "E120" // Store open or read failed
	ErrCodeDecode        = "E121" // Stored row failed to decode
)
