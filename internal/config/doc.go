// Package config loads triad settings with viper.
//
// Values merge in order defaults <- triad.yaml <- TRIAD_* environment
// variables <- CLI flags. The file is looked up in the working directory and
// then the user config directory ($XDG_CONFIG_HOME/triad or the OS
// equivalent) unless --config names one. Validate reports invalid settings
// as *review.ConfigError so the CLI can stop before any agent is called.
package config
