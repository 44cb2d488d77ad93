// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ci-report/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Runs    []Run                `json:"runs" yaml:"runs"`
	Reports []types.ReportRecord `json:"reports" yaml:"reports"`
}

// ExportYAML writes the ledger to indexDir/export.yaml and returns the path.
// Reports are narrowed by f; every run is included.
func (s *Store) ExportYAML(ctx context.Context, f Filter) (string, error) {
	doc, err := s.export(ctx, f)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.indexDir, "export.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the ledger to indexDir/export.json and returns the path.
func (s *Store) ExportJSON(ctx context.Context, f Filter) (string, error) {
	doc, err := s.export(ctx, f)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.indexDir, "export.json")
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) export(ctx context.Context, f Filter) (*Export, error) {
	runs, err := s.Runs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	reports, err := s.Retrieve(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	return &Export{Runs: runs, Reports: reports}, nil
}
