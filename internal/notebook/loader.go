// Package notebook loads Jupyter notebooks into ordered, immutable cell records.
package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrParseFailure marks a notebook container that cannot be decoded. It is the
// only failure that aborts an analysis run.
var ErrParseFailure = errors.New("notebook parse failure")

// ParseError describes why a notebook could not be loaded.
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParseFailure, e.Err}
	}
	return []error{ErrParseFailure}
}

const defaultLanguage = "python"

type rawNotebook struct {
	NBFormat int             `json:"nbformat"`
	Metadata rawMetadata     `json:"metadata"`
	Cells    json.RawMessage `json:"cells"`
}

type rawMetadata struct {
	KernelSpec struct {
		Language string `json:"language"`
	} `json:"kernelspec"`
	LanguageInfo struct {
		Name string `json:"name"`
	} `json:"language_info"`
}

type rawCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// Load reads and decodes the notebook at path.
func Load(path string, categorizer Categorizer) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "failed to read notebook", Err: err}
	}
	nb, err := Decode(bytes.NewReader(data), categorizer)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	nb.Path = path
	return nb, nil
}

// Decode parses an nbformat-4 document from r. Code cells are tagged by
// categorizer; a nil categorizer leaves every code cell as CategoryOther.
func Decode(r io.Reader, categorizer Categorizer) (*Notebook, error) {
	var raw rawNotebook
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, &ParseError{Reason: "invalid notebook JSON", Err: err}
	}
	if raw.NBFormat != 0 && raw.NBFormat < 4 {
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported nbformat %d (need 4+)", raw.NBFormat)}
	}
	if len(raw.Cells) == 0 || string(raw.Cells) == "null" {
		return nil, &ParseError{Reason: "missing cells array"}
	}

	var rawCells []rawCell
	if err := json.Unmarshal(raw.Cells, &rawCells); err != nil {
		return nil, &ParseError{Reason: "cells is not an array of cell objects", Err: err}
	}

	nb := &Notebook{
		Language: notebookLanguage(raw.Metadata),
		Cells:    make([]Cell, 0, len(rawCells)),
	}
	for i, rc := range rawCells {
		source, err := decodeSource(rc.Source)
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("cell %d: invalid source", i), Err: err}
		}

		cell := Cell{Index: i, Source: source}
		switch rc.CellType {
		case "code":
			cell.Kind = KindCode
			cell.Category = CategoryOther
			if categorizer != nil {
				cell.Category = categorizer.Categorize(source)
			}
		case "markdown", "raw":
			cell.Kind = KindNarrative
		default:
			return nil, &ParseError{Reason: fmt.Sprintf("cell %d: unknown cell_type %q", i, rc.CellType)}
		}
		nb.Cells = append(nb.Cells, cell)
	}

	return nb, nil
}

// FromSources builds a notebook from code sources, one code cell per entry.
// Entries prefixed with "#md " become narrative cells. It is meant for
// fixtures and tests.
func FromSources(categorizer Categorizer, sources ...string) *Notebook {
	nb := &Notebook{Language: defaultLanguage, Cells: make([]Cell, 0, len(sources))}
	for i, src := range sources {
		if rest, ok := strings.CutPrefix(src, "#md "); ok {
			nb.Cells = append(nb.Cells, Cell{Index: i, Source: rest, Kind: KindNarrative})
			continue
		}
		category := CategoryOther
		if categorizer != nil {
			category = categorizer.Categorize(src)
		}
		nb.Cells = append(nb.Cells, Cell{Index: i, Source: src, Kind: KindCode, Category: category})
	}
	return nb
}

// decodeSource accepts both the string and the list-of-lines encodings.
func decodeSource(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, ""), nil
}

func notebookLanguage(meta rawMetadata) string {
	if lang := strings.TrimSpace(meta.KernelSpec.Language); lang != "" {
		return strings.ToLower(lang)
	}
	if lang := strings.TrimSpace(meta.LanguageInfo.Name); lang != "" {
		return strings.ToLower(lang)
	}
	return defaultLanguage
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
