// Package config provides configuration structures and utilities for wordcrawl.
// It defines the crawl settings, the YAML configuration file format and the
// report output preferences.
package config
