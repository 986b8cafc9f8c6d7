package api

import (
	"net/http"
	"strings"
)

// StaticHandler serves the catalog root. Requests naming a dot-prefixed
// file or directory anywhere in the path get 404, so the config file, .env
// and VCS directories stay private.
func StaticHandler(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, seg := range strings.Split(r.URL.Path, "/") {
			if strings.HasPrefix(seg, ".") {
				http.NotFound(w, r)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}
