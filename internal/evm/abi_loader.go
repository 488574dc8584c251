package evm

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadABIDir walks a directory of *.json ABI files and parses each
// into an ABISpec keyed by file path — adapted from the teacher's
// internal/source/evm/abi_loader.go LoadABIs, generalized from
// go-ethereum's abi.ABI to ChainCodec's own ABISpec so the call
// decoder/encoder see CanonicalType, not go-ethereum's native types.
func LoadABIDir(dir string) (map[string]*ABISpec, error) {
	specs := map[string]*ABISpec{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("evm: read abi %s: %w", path, err)
		}
		spec, err := ParseABI(data)
		if err != nil {
			return fmt.Errorf("evm: parse abi %s: %w", path, err)
		}
		specs[path] = spec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return specs, nil
}
