package generate

import (
	"net/http"
)

// Register mounts the generation routes on mux, once at the root and once
// under rootPath when it is set. protect wraps every route; nil leaves them open.
func Register(mux *http.ServeMux, gen Generator, rootPath string, protect func(http.Handler) http.Handler) {
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}
	routes := map[string]http.Handler{
		"/generate/title":      protect(TitleHandler{gen}),
		"/generate/summary":    protect(SummaryHandler{gen}),
		"/generate/experience": protect(ExperienceHandler{gen}),
	}
	for path, h := range routes {
		mux.Handle("POST "+path, h)
		if rootPath != "" && rootPath != "/" {
			mux.Handle("POST "+rootPath+path, h)
		}
	}
}

// Paths lists the generation routes relative to the root, for path normalisation.
func Paths() []string {
	return []string{"/generate/title", "/generate/summary", "/generate/experience"}
}
