package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/relq"
)

// Document is the YAML form of a catalog:
//
//	tables:
//	  Customer:
//	    - name: Id
//	      maxLength: 50
//	      unique: true
//	    - name: Name
type Document struct {
	Tables map[string][]ColumnSchema `yaml:"tables"`
}

// ColumnSchema is one column of a Document.
type ColumnSchema struct {
	Name      string `yaml:"name"`
	MaxLength int    `yaml:"maxLength,omitempty"`
	Unique    bool   `yaml:"unique,omitempty"`
}

// LoadYAML reads a catalog Document.
func LoadYAML(r io.Reader) (*Static, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return doc.Catalog()
}

// LoadYAMLFile reads a catalog Document from path.
func LoadYAMLFile(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Catalog validates the document and builds a catalog from it.
func (d Document) Catalog() (*Static, error) {
	cat := New()
	for name, columns := range d.Tables {
		if name == "" {
			return nil, fmt.Errorf("table name cannot be empty")
		}
		cols := make([]relq.Column, len(columns))
		for i, c := range columns {
			if c.Name == "" {
				return nil, fmt.Errorf("table %s: column %d has no name", name, i)
			}
			if c.MaxLength < 0 {
				return nil, fmt.Errorf("table %s: column %s has negative maxLength", name, c.Name)
			}
			cols[i] = relq.Column{Name: c.Name, MaxLength: c.MaxLength, Unique: c.Unique}
		}
		cat.Set(name, cols...)
	}
	return cat, nil
}

// Export returns the document form of the catalog.
func (s *Static) Export() Document {
	doc := Document{Tables: make(map[string][]ColumnSchema)}
	for _, name := range s.Tables() {
		cols, _ := s.Columns(name)
		schemas := make([]ColumnSchema, len(cols))
		for i, c := range cols {
			schemas[i] = ColumnSchema{Name: c.Name, MaxLength: c.MaxLength, Unique: c.Unique}
		}
		doc.Tables[name] = schemas
	}
	return doc
}
