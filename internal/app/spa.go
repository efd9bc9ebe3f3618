package app

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/southern-apparels/sa-erp/web"
)

// assetPrefixes hold fingerprinted bundles that may be cached for a long time.
var assetPrefixes = []string{"/assets/", "/_next/static/"}

// SPAFiles returns the bundle served to browsers: SPA_DIR when set, else the embedded
// build.
func SPAFiles(cfg *Config) fs.FS {
	if cfg != nil && cfg.SPADir != "" {
		return os.DirFS(cfg.SPADir)
	}
	return web.Dist()
}

// SPAHandler serves files from the bundle and falls back to index.html so client side
// routes resolve.
func SPAHandler(files fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(files))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name != "" && name != "." {
			if info, err := fs.Stat(files, name); err == nil && !info.IsDir() {
				if isAsset(r.URL.Path) {
					w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
				} else {
					w.Header().Set("Cache-Control", "public, max-age=3600")
				}
				fileServer.ServeHTTP(w, r)
				return
			}
			if isAsset(r.URL.Path) {
				http.NotFound(w, r)
				return
			}
		}
		index, err := fs.ReadFile(files, "index.html")
		if err != nil {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(index)
		}
	})
}

func isAsset(p string) bool {
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
