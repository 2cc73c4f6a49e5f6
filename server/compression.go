package server

import (
	"compress/gzip"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/sambeau/webcore/config"
)

// compressibleTypes are the build artifacts worth compressing. Images and
// fonts copied from public/ are already compressed.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// newCompressionHandler wraps h with gzip compression. It returns h
// unchanged when compression is disabled or the level is "none".
func newCompressionHandler(h http.Handler, cfg config.CompressionConfig) http.Handler {
	if !cfg.Enabled || cfg.Level == "none" {
		return h
	}

	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(gzipLevel(cfg.Level)),
		gzhttp.ContentTypes(compressibleTypes),
	)
	if err != nil {
		return h
	}
	return wrapper(h)
}

func gzipLevel(name string) int {
	switch name {
	case "fastest":
		return gzip.BestSpeed
	case "best":
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}
