package csdl

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaincodec/chaincodec/internal/schema"
)

// LoadDir walks a directory of *.csdl.yaml (or .yaml/.yml) documents
// and parses every schema out of every file, in filename order —
// mirrors internal/evm.LoadABIDir's directory-scan shape, generalized
// from one-ABISpec-per-file to possibly-many-schemas-per-document
// since a single CSDL file may hold a YAML multi-document stream.
func LoadDir(dir string) ([]*schema.Schema, error) {
	var out []*schema.Schema
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("csdl: read %s: %w", path, err)
		}
		schemas, err := ParseAll(data)
		if err != nil {
			return fmt.Errorf("csdl: parse %s: %w", path, err)
		}
		out = append(out, schemas...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
