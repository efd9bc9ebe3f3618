package app

import (
	"log"
	"mime"
)

// Minimal container images ship without /etc/mime.types.
func init() {
	ensureMimeType(".css", "text/css; charset=utf-8")
	ensureMimeType(".js", "text/javascript; charset=utf-8")
	ensureMimeType(".mjs", "text/javascript; charset=utf-8")
	ensureMimeType(".json", "application/json")
	ensureMimeType(".svg", "image/svg+xml")
	ensureMimeType(".woff2", "font/woff2")
	ensureMimeType(".webmanifest", "application/manifest+json")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
