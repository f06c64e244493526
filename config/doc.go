// Package config provides configuration loading and validation for stowgate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (STOWGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with STOWGATE_ prefix:
//   - server.port → STOWGATE_SERVER_PORT
//   - upstream.path_prefix → STOWGATE_UPSTREAM_PATH_PREFIX
//   - log.format → STOWGATE_LOG_FORMAT
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, max_body_bytes and an optional static_dir
//   - Upstream: authorize_url, path_prefix and timeout (seconds)
//   - CORS: cross-origin resource sharing settings
//   - Metrics: whether /metrics is served, and where
//   - Log: level and format (text or json)
//
// The provider's real API lives under /b2api, so production deployments set
// upstream.path_prefix to "b2api". The default "api" suits local stubs.
package config
