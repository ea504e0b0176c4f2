// Package config loads the runtime settings of the server from an optional
// YAML file and ADAGRAPH_* environment variables, on top of built-in
// defaults.
package config
