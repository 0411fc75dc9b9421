package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one source workbook
type SourceConfig struct {
	Name     string `yaml:"name"`
	Workbook string `yaml:"workbook"`
	Sheet    string `yaml:"sheet"`
	BaseID   string `yaml:"base_id"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads the sources file. Relative workbook paths are resolved
// against the directory of the file. Names and base IDs must be unique.
func LoadSources(fs afero.Fs, path string) ([]SourceConfig, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sources file: %w", err)
	}
	defer file.Close()

	var parsed sourcesFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode sources file %s: %w", path, err)
	}
	if len(parsed.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no sources", path)
	}

	names := make(map[string]bool, len(parsed.Sources))
	baseIDs := make(map[string]string, len(parsed.Sources))
	dir := filepath.Dir(path)
	for i := range parsed.Sources {
		src := &parsed.Sources[i]
		switch {
		case src.Name == "":
			return nil, fmt.Errorf("source %d: name is required", i+1)
		case src.Workbook == "":
			return nil, fmt.Errorf("source %s: workbook is required", src.Name)
		case src.Sheet == "":
			return nil, fmt.Errorf("source %s: sheet is required", src.Name)
		case src.BaseID == "":
			return nil, fmt.Errorf("source %s: base_id is required", src.Name)
		}
		if names[src.Name] {
			return nil, fmt.Errorf("source %s is listed twice", src.Name)
		}
		names[src.Name] = true
		if other, ok := baseIDs[src.BaseID]; ok {
			return nil, fmt.Errorf("sources %s and %s share base_id %s", other, src.Name, src.BaseID)
		}
		baseIDs[src.BaseID] = src.Name

		if !filepath.IsAbs(src.Workbook) {
			src.Workbook = filepath.Join(dir, src.Workbook)
		}
	}
	return parsed.Sources, nil
}
