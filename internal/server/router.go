package server

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type loggerKey struct{}

type RouterOptions struct {
	// Production restricts CORS to AllowedOrigins; otherwise any origin.
	Production     bool
	AllowedOrigins []string
	// AccessLog receives one line per request; nil disables it.
	AccessLog      io.Writer
}

func NewRouter(api *API, opts RouterOptions) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", api.Health).Methods(http.MethodGet)
	r.HandleFunc("/readings", api.Readings).Methods(http.MethodGet)
	r.HandleFunc("/update-readings", api.UpdateReadings).Methods(http.MethodPost)
	r.HandleFunc("/test", api.Probe).Methods(http.MethodGet)

	r.Use(api.requestID)

	origins := []string{"*"}
	if opts.Production {
		origins = opts.AllowedOrigins
	}
	var h http.Handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	if opts.AccessLog != nil {
		h = handlers.LoggingHandler(opts.AccessLog, h)
	}
	return h
}

// requestID tags each request with an X-Request-Id and a logger carrying it.
// A client-supplied id is kept only if it is a UUID.
func (a *API) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if u, err := uuid.Parse(id); err == nil {
			id = u.String()
		} else {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		log := a.logger(r.Context()).With("request_id", id, "path", r.URL.Path)
		ctx := context.WithValue(r.Context(), loggerKey{}, log)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
