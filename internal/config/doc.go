// Package config loads and validates the application configuration.
//
// Configuration is assembled from three layers, later layers winning:
// struct tag defaults, EVELIS_-prefixed environment variables, and an
// optional YAML file (EVELIS_CONFIG or ./config.yaml). The result is
// validated with struct tags before use.
package config
