// Package config loads the server configuration with viper. Values come
// from an optional config.yaml, then SHEEPIFY_* environment variables, and
// are validated with go-playground/validator before the server starts.
package config
