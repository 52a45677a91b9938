package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"codeberg.org/pixsplit/pixsplit/internal/convert"
	"codeberg.org/pixsplit/pixsplit/pkg/img"
)

// maxBodySize is the largest accepted image upload.
var maxBodySize int64 = 64 << 20

// errTooLarge is the error text of http.MaxBytesReader when the limit
// is reached.
const errTooLarge = "http: request body too large"

// ErrBodyTooLarge is returned when an upload exceeds the size limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Server is a wrapper around chi router.
type Server struct {
	Router  *chi.Mux
	Codec   img.Codec
	Service *convert.Service
}

// New create a new server, with all the API routes.
func New(codec img.Codec, service *convert.Service) *Server {
	s := &Server{
		Router:  chi.NewRouter(),
		Codec:   codec,
		Service: service,
	}

	s.Router.Use(
		middleware.Recoverer,
		middleware.RealIP,
		middleware.RequestID,
		Logger(),
	)

	s.Router.Mount("/api", s.apiRoutes())

	return s
}

// Log returns a log entry including the request ID
func (s *Server) Log(r *http.Request) *log.Entry {
	return log.WithField("@id", middleware.GetReqID(r.Context()))
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(host string, port int) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", host, port),
		Handler:        s.Router,
		MaxHeaderBytes: 1 << 20,
	}

	return srv.ListenAndServe()
}
