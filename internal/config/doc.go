// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file, a .env file and HOMEORG_-prefixed
// environment variables. It provides type-safe access to the settings used
// by the server, the storage adapters and the maintenance scheduler.
package config
