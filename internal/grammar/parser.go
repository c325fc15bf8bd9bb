package grammar

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/karupanerura/rough/internal/expression"
)

// Format is the encoding of a grammar document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

var formatByExtension = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// FormatOf picks the format from the file extension.
func FormatOf(filePath string) (Format, error) {
	if format, ok := formatByExtension[strings.ToLower(filepath.Ext(filePath))]; ok {
		return format, nil
	}
	return 0, fmt.Errorf("unsupported file extension: %s", filePath)
}

// Decode compiles the operator table described by a grammar document. YAML is
// converted to JSON first, so both formats go through the same decoder.
func Decode(r io.Reader, format Format) (*expression.OperatorTable, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}
	if format == FormatYAML {
		if b, err = yaml.YAMLToJSON(b); err != nil {
			return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	decoder.DisallowUnknownFields()

	var root grammarDef
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}
	return root.compile()
}

// Load reads the grammar file at filePath.
func Load(filePath string) (*expression.OperatorTable, error) {
	format, err := FormatOf(filePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	table, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return table, nil
}
