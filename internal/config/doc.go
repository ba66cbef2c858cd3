// Package config defines the watcher configuration schema, YAML
// loading with environment-variable expansion, defaulting, and
// validation.
package config
