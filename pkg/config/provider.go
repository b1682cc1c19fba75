package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Timezone   string         `json:"timezone"`
	Resolution string         `json:"resolution"`
	Vector     VectorData     `json:"vector"`
	Candidates CandidatesData `json:"candidates"`
	DataSource DataSourceData `json:"datasource"`
	Fetch      FetchData      `json:"fetch"`
}

// VectorData names the vector signal a header is built for
type VectorData struct {
	Variable string `json:"variable"`
}

// CandidatesData selects the signals competing for the vector columns
type CandidatesData struct {
	Pattern string   `json:"pattern"`
	Filter  string   `json:"filter,omitempty"`
	Names   []string `json:"names,omitempty"`
}

// DataSourceData holds the configuration of the backend signals are read from
type DataSourceData struct {
	Type        string           `json:"type"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	Archive     *ArchiveData     `json:"archive,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
	MaxRows          int64  `json:"max_rows,omitempty"`
}

type ArchiveData struct {
	Path    string `json:"path"`
	MaxRows int64  `json:"max_rows,omitempty"`
}

// FetchData tunes how data is fetched
type FetchData struct {
	MinSpan string `json:"min_span,omitempty"`
}
