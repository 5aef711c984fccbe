// Package config loads audioscribe configuration.
//
// Values come from, in increasing precedence: a config.yml file, a .env file and
// the process environment. Environment variables map onto nested keys by
// splitting on underscores, with an optional service prefix, so both
// PIPELINE_CACHE_DIR and AUDIOSCRIBE_PIPELINE_CACHE_DIR set pipeline.cache_dir.
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.LoadConfig("audioscribe", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
