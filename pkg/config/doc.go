// Package config provides configuration management for the gateway.
//
// Configuration is read once at startup from a YAML file with environment
// variable overrides. There is no hot reload.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// A missing file is allowed by LoadConfigWithEnvOverrides; the gateway then
// runs on defaults plus environment. LoadConfig requires the file.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GATEWAY_SECTION_FIELD:
//
//   - GATEWAY_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - GATEWAY_UPSTREAM_API_KEY overrides upstream.api_key
//   - GATEWAY_RATE_LIMIT_REQUESTS overrides rate_limit.requests
//
// When no API key is configured, OPENAI_API_KEY is used.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validate collects every problem into a ValidationError of FieldErrors
// instead of stopping at the first.
package config
