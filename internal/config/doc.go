// Package config loads and validates the gateway's runtime configuration
// from environment variables (and an optional config file), using viper.
package config
