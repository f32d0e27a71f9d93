package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// IsArtifact reports whether path names a serialized page artifact.
func IsArtifact(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// MarshalArtifact encodes documents as indented JSON or YAML, selected by the
// extension of path.
func MarshalArtifact(path string, docs []*Document) ([]byte, error) {
	if docs == nil {
		docs = []*Document{}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return nil, fmt.Errorf("encode yaml artifact: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml artifact: %w", err)
		}
		return buf.Bytes(), nil
	case ".json":
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json artifact: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported artifact extension: %s", filepath.Ext(path))
	}
}

// UnmarshalArtifact decodes documents from JSON or YAML and restores page
// numbering and back-references.
func UnmarshalArtifact(path string, data []byte) ([]*Document, error) {
	var docs []*Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode yaml artifact: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode json artifact: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported artifact extension: %s", filepath.Ext(path))
	}
	for _, d := range docs {
		if d.ID == "" {
			d.ID = "unknown.pdf"
		}
		d.Renumber()
	}
	return docs, nil
}

// WriteArtifact writes the documents to path, creating parent directories.
func WriteArtifact(path string, docs []*Document) error {
	data, err := MarshalArtifact(path, docs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// ReadArtifact loads documents previously written by WriteArtifact.
func ReadArtifact(path string) ([]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return UnmarshalArtifact(path, data)
}
