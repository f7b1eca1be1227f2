// Package config resolves the configuration of a repost invocation.
//
// Values are layered, lowest precedence first:
//   - Built-in defaults
//   - An optional YAML file (--config or REPOST_CONFIG)
//   - Environment variables
//   - Command line flags
package config
