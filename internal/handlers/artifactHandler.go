package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/akolanti/DocQA/internal/config"
)

// ArtifactHandler serves stored artifacts under /uploads. Scratch and staging
// files inside the storage root start with a dot and are never served.
func ArtifactHandler(root string) http.Handler {
	files := http.StripPrefix(config.UploadsURLPrefix+"/", http.FileServer(http.Dir(root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if strings.HasPrefix(name, ".") || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
