// Package ingest turns raw uploaded text into a taxrecord.Record.
//
// Loading is all-or-nothing: a caller either gets a fully normalized Record
// or a *ValidationError, never a partially populated value.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"taxreview/internal/logging"
	"taxreview/internal/taxrecord"
)

// RequiredKeys are the top-level keys a record must carry as objects.
var RequiredKeys = []string{"jurisdiction", "vertical", "provision"}

// AcceptedExtensions lists the file extensions accepted by CheckFileType.
var AcceptedExtensions = []string{".json"}

const shapeSchemaURL = "https://taxreview.schemas.local/record.schema.json"

// shapeSchema only checks the three required top-level objects. Nested
// fields are deliberately left open so both historical encodings pass.
const shapeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["jurisdiction", "vertical", "provision"],
  "properties": {
    "jurisdiction": {"type": "object"},
    "vertical": {"type": "object"},
    "provision": {"type": "object"}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(shapeSchemaURL, strings.NewReader(shapeSchema)); err != nil {
			schemaErr = fmt.Errorf("record schema load failed: %w", err)
			return
		}
		schema, schemaErr = c.Compile(shapeSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("record schema compile failed: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// CheckFileType rejects names without an accepted extension. It runs before
// any read or parse attempt.
func CheckFileType(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, ok := range AcceptedExtensions {
		if ext == ok {
			return nil
		}
	}
	return &ValidationError{
		Kind:    UnsupportedFileType,
		Message: msgUnsupportedFileType,
		Err:     fmt.Errorf("extension %q not accepted", ext),
	}
}

// Load parses rawText and normalizes it into a Record.
func Load(rawText string) (*taxrecord.Record, error) {
	doc, err := decode(rawText)
	if err != nil {
		return nil, err
	}
	if err := checkShape(doc); err != nil {
		return nil, err
	}
	return taxrecord.Normalize(doc.(map[string]any)), nil
}

// LoadFile applies the file-type gate, reads path and calls Load.
func LoadFile(path string) (*taxrecord.Record, error) {
	audit := logging.Audit()
	if err := CheckFileType(path); err != nil {
		audit.RecordRejected(path, UnsupportedFileType.String(), err)
		return nil, err
	}

	data, err := os.ReadFile(path)
	audit.FileOp(logging.AuditFileRead, path, int64(len(data)), err)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rec, err := Load(string(data))
	if err != nil {
		var ve *ValidationError
		kind := "Unknown"
		if errors.As(err, &ve) {
			kind = ve.Kind.String()
		}
		audit.RecordRejected(path, kind, err)
		return nil, err
	}
	audit.RecordLoaded(path, rec.Jurisdiction.Name, rec.Vertical.Label)
	return rec, nil
}

// decode parses exactly one JSON value. Numbers are kept as json.Number so
// amounts keep their textual form.
func decode(rawText string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(rawText))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Kind: ParseError, Message: msgParse, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, &ValidationError{Kind: ParseError, Message: msgParse, Err: err}
	}
	return doc, nil
}

func checkShape(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	verr := s.Validate(doc)
	if verr == nil {
		return nil
	}
	logging.IngestDebug("shape check failed: %v", verr)
	return &ValidationError{
		Kind:    ShapeError,
		Message: msgShape,
		Missing: missingKeys(doc),
		Err:     verr,
	}
}

// missingKeys reports which required keys are absent or not objects.
func missingKeys(doc any) []string {
	m, _ := doc.(map[string]any)
	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := m[k].(map[string]any); !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
