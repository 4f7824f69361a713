package heuristics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML table file and returns the built-in tables with the
// file's rules layered in front of them. An empty path returns Default().
func LoadFile(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heuristics file: %w", err)
	}
	overrides, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("heuristics file %s: %w", path, err)
	}
	return Default().Merge(overrides), nil
}

// Parse compiles tables from YAML. Unknown keys are rejected.
func Parse(data []byte) (*Tables, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return Compile(def)
}
