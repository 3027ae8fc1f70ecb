package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/poyou/data/posters.db"
	}
	if cfg.Storage.AssetDir == "" {
		cfg.Storage.AssetDir = "/usr/local/var/poyou/data/assets"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "/usr/local/var/poyou/data/posters"
	}
	if cfg.Classifier.ArtifactDir == "" {
		cfg.Classifier.ArtifactDir = "/usr/local/var/poyou/data/models"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 24
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.MinSimilarity == 0 {
		cfg.Search.MinSimilarity = 0.01
	}
	if cfg.Search.SimilarLimit == 0 {
		cfg.Search.SimilarLimit = 3
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
