package csdl

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDirParsesEveryYAMLFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "transfer.csdl.yaml"), []byte(sampleCSDL), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "multi.csdl.yml"), []byte(multiDocCSDL), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	schemas, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(schemas) != 3 {
		t.Fatalf("expected 3 schemas across both files, got %d", len(schemas))
	}
}

func TestLoadDirPropagatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("not: [valid, csdl"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir); err == nil {
		t.Fatal("expected a parse error to propagate")
	}
}
