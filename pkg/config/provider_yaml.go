package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file. Settings
// missing from the file take their defaults.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := Parse(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// Parse decodes YAML configuration data and fills in defaults.
func Parse(data []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Timezone:   yamlConfig.Timezone,
		Resolution: yamlConfig.Resolution,
		Vector:     VectorData{Variable: yamlConfig.Vector.Variable},
		Candidates: CandidatesData{
			Pattern: yamlConfig.Candidates.Pattern,
			Filter:  yamlConfig.Candidates.Filter,
			Names:   yamlConfig.Candidates.Names,
		},
		DataSource: DataSourceData{Type: yamlConfig.DataSource.Type},
		Fetch:      FetchData{MinSpan: yamlConfig.Fetch.MinSpan},
	}
	if yamlConfig.DataSource.TimescaleDB != nil {
		config.DataSource.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.DataSource.TimescaleDB.ConnectionString,
			MaxRows:          yamlConfig.DataSource.TimescaleDB.MaxRows,
		}
	}
	if yamlConfig.DataSource.Archive != nil {
		config.DataSource.Archive = &ArchiveData{
			Path:    yamlConfig.DataSource.Archive.Path,
			MaxRows: yamlConfig.DataSource.Archive.MaxRows,
		}
	}

	config.ApplyDefaults()
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with yaml tags

type ConfigYAML struct {
	Timezone   string         `yaml:"timezone,omitempty"`
	Resolution string         `yaml:"resolution,omitempty"`
	Vector     VectorYAML     `yaml:"vector,omitempty"`
	Candidates CandidatesYAML `yaml:"candidates,omitempty"`
	DataSource DataSourceYAML `yaml:"datasource"`
	Fetch      FetchYAML      `yaml:"fetch,omitempty"`
}

type VectorYAML struct {
	Variable string `yaml:"variable,omitempty"`
}

type CandidatesYAML struct {
	Pattern string   `yaml:"pattern,omitempty"`
	Filter  string   `yaml:"filter,omitempty"`
	Names   []string `yaml:"names,omitempty"`
}

type DataSourceYAML struct {
	Type        string           `yaml:"type"`
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
	Archive     *ArchiveYAML     `yaml:"archive,omitempty"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
	MaxRows          int64  `yaml:"max-rows,omitempty"`
}

type ArchiveYAML struct {
	Path    string `yaml:"path"`
	MaxRows int64  `yaml:"max-rows,omitempty"`
}

type FetchYAML struct {
	MinSpan string `yaml:"min-span,omitempty"`
}
