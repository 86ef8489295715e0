package http

import (
	"mime"
	"net/http"

	"devlog-ai/internal/handler/http/respond"
)

const maxURILength = 2048

// InputValidation rejects oversized URIs with 414 and POST bodies that are
// not declared as JSON with 415. A missing Content-Type is accepted.
func InputValidation() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.RequestURI()) > maxURILength {
				respond.JSON(w, http.StatusRequestURITooLong, respond.ErrorBody{Error: "URI too long"})
				return
			}

			if r.Method == http.MethodPost {
				if ct := r.Header.Get("Content-Type"); ct != "" {
					mediaType, _, err := mime.ParseMediaType(ct)
					if err != nil || mediaType != "application/json" {
						respond.JSON(w, http.StatusUnsupportedMediaType, respond.ErrorBody{Error: "content type must be application/json"})
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
