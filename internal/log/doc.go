// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Masking of credentials embedded in crawled URLs
//   - Configurable log levels with verbose mode support
//
// # Security Features
//
// The SecureHandler sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - URL userinfo passwords and token-like query parameters, both in plain
//     string attributes and inside error messages
//
// Crawled pages link to arbitrary URLs, and some of them carry session
// tokens in the query string. Even in verbose mode those values are masked
// so that logs can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Debug("parse failed",
//	    "url", "https://example.com/?token=abc123", // logged as token=***REDACTED***
//	)
//	slog.SetDefault(logger)
package log
