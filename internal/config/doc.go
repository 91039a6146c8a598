// Package config loads and validates the kit-booth YAML settings.
package config
