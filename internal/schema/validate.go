// Package schema validates simulation parameter files against an
// embedded CUE schema before the Go-side moment checks run. The CUE
// pass catches type and range mistakes with file positions; derived
// feasibility (Beta shape positivity) stays in sim.Params.Validate
// where the shapes are computed.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/yaml"
)

//go:embed params.cue
var paramsCUE []byte

// Validation error codes (E200-E299).
const (
	ErrCodeFileNotFound    = "E201" // params file missing or unreadable
	ErrCodeYAMLParse       = "E202" // file is not valid YAML
	ErrCodeSchemaViolation = "E203" // value rejected by the CUE schema
	ErrCodeSchemaInternal  = "E209" // embedded schema failed to compile
)

// ValidationError is a single schema violation with its source
// location when CUE can attribute one.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateFile checks a YAML parameter file against the embedded
// schema. Returns all violations found (does not fail fast); an empty
// slice means the file is schema-valid.
func ValidateFile(path string) []ValidationError {
	data, err := os.ReadFile(path)
	if err != nil {
		return []ValidationError{{
			Field:   "file",
			Message: fmt.Sprintf("cannot read params file: %v", err),
			Code:    ErrCodeFileNotFound,
		}}
	}
	return ValidateBytes(path, data)
}

// ValidateBytes checks YAML parameter content against the embedded
// schema. The filename is used only for error positions.
func ValidateBytes(filename string, data []byte) []ValidationError {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(paramsCUE, cue.Filename("params.cue"))
	if err := schemaVal.Err(); err != nil {
		return []ValidationError{{
			Field:   "schema",
			Message: fmt.Sprintf("embedded schema failed to compile: %v", err),
			Code:    ErrCodeSchemaInternal,
		}}
	}
	paramsDef := schemaVal.LookupPath(cue.ParsePath("#Params"))
	if err := paramsDef.Err(); err != nil {
		return []ValidationError{{
			Field:   "schema",
			Message: fmt.Sprintf("embedded schema has no #Params definition: %v", err),
			Code:    ErrCodeSchemaInternal,
		}}
	}

	file, err := yaml.Extract(filename, data)
	if err != nil {
		return []ValidationError{{
			Field:   "file",
			Message: fmt.Sprintf("invalid YAML: %v", err),
			Code:    ErrCodeYAMLParse,
		}}
	}

	dataVal := ctx.BuildFile(file)
	if err := dataVal.Err(); err != nil {
		return cueToValidationErrors(err, ErrCodeYAMLParse)
	}

	// #Params is a definition, so unification also rejects unknown
	// fields ("field not allowed").
	unified := paramsDef.Unify(dataVal)
	if err := unified.Validate(cue.Final()); err != nil {
		return cueToValidationErrors(err, ErrCodeSchemaViolation)
	}

	return nil
}

// cueToValidationErrors flattens a CUE error list into our structured
// form, keeping one entry per underlying violation.
func cueToValidationErrors(err error, code string) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: cueerrors.Details(e, &cueerrors.Config{}),
			Code:    code,
		}
		if pos := e.Position(); pos.IsValid() {
			ve.Line = pos.Line()
		}
		if ve.Field == "" {
			ve.Field = "params"
		}
		// Details appends position info and a trailing newline; keep
		// the message single-line for table output.
		if i := strings.IndexByte(ve.Message, '\n'); i >= 0 {
			ve.Message = ve.Message[:i]
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{
			Field:   "params",
			Message: err.Error(),
			Code:    code,
		})
	}
	return out
}
