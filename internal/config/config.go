// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors must be wrapped via this package's error helpers.
package config

// Backend names accepted by StorageBackend.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StorageBackend selects the blob store: "local" or "minio".
	StorageBackend string `koanf:"storage_backend"`

	// LocalDataPath is the root directory for the local blob store.
	LocalDataPath string `koanf:"local_data_path"`

	// MinIO connection settings, used when StorageBackend is "minio".
	MinioEndpoint  string `koanf:"minio_endpoint"`
	MinioAccessKey string `koanf:"minio_access_key"`
	MinioSecretKey string `koanf:"minio_secret_key"`
	MinioBucket    string `koanf:"minio_bucket"`
	MinioSecure    bool   `koanf:"minio_secure"`

	// Layer folder prefixes. Each staging layer owns its own namespace.
	RawFolder        string `koanf:"raw_folder"`
	ValidatedFolder  string `koanf:"validated_folder"`
	AggregatedFolder string `koanf:"aggregated_folder"`

	// Scoring weights for the composite recommendation score.
	WeightCost       float64 `koanf:"weight_cost"`
	WeightRemaining  float64 `koanf:"weight_remaining"`
	WeightExperience float64 `koanf:"weight_experience"`

	// DefaultTopN is used when a recommendation request omits a limit.
	DefaultTopN int `koanf:"default_top_n"`

	// MaxTopN caps the recommendation limit accepted over HTTP.
	MaxTopN int `koanf:"max_top_n"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		StorageBackend:   BackendLocal,
		LocalDataPath:    "data",
		MinioEndpoint:    "localhost:9000",
		MinioAccessKey:   "minioadmin",
		MinioSecretKey:   "minioadmin",
		MinioBucket:      "encore",
		MinioSecure:      false,
		RawFolder:        "raw/",
		ValidatedFolder:  "validated/",
		AggregatedFolder: "aggregated/",
		WeightCost:       0.40,
		WeightRemaining:  0.30,
		WeightExperience: 0.30,
		DefaultTopN:      10,
		MaxTopN:          100,
	}
}
