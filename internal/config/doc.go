// Package config handles configuration loading for the quickchat client.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from QUICKCHAT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/quickchat/config.yaml
//  3. ~/.config/quickchat/config.yaml
//
// When no file exists at the implicit locations the defaults are used as-is.
// A path ending in .toml is parsed as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	server:
//	  url: "${QUICKCHAT_SERVER}"
//
// Unset variables expand to the empty string, which then takes the default.
//
// # Configuration Sections
//
//	server:
//	  url: "http://localhost:5000"     # REST API
//	  socket_url: ""                   # defaults to url
//	  request_timeout: "10s"
//
//	session:
//	  token_path: ""                   # defaults to ~/.config/quickchat/token
//
//	chat:
//	  max_image_bytes: 5242880
//	  dedupe_ttl: "10m"                # how long delivered message IDs are remembered
//	  dedupe_size: 1000
//	  refresh_on_presence: true        # re-fetch users when the online count changes
//
//	transport:
//	  reconnect_min: "1s"
//	  reconnect_max: "30s"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	  file: ""        # defaults to stderr
//
// Duration values use Go's time.ParseDuration syntax.
//
// # Usage
//
//	cfg, path, err := config.LoadDefault()
//	if err != nil {
//	    return err
//	}
package config
