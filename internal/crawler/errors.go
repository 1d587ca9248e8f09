package crawler

import "errors"

// Page parsing errors.
// The engine treats every parse error as an empty page, so these errors
// never abort a crawl. They are exported for callers that use HTMLParser
// directly.
var (
	// ErrUnsupportedScheme is returned for URLs that are neither http(s) nor file.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrUnexpectedStatus is returned when the server answers with a 4xx or 5xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidProxy is returned when the proxy URL is not socks5://host:port.
	ErrInvalidProxy = errors.New("invalid proxy: expected socks5://host:port")
)
