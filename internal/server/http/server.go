package internalhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okaralov/planner/internal/app"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

type Server struct {
	srv  *http.Server
	addr string
}

func NewServer(config Config, app *app.App) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: newRouter(app)},
	}
}

func newRouter(app *app.App) http.Handler {
	h := newHandler(app)

	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.Get("/", h.root)
	r.Post("/events", h.createEvent)
	r.Put("/events/{id}", h.updateEvent)
	r.Delete("/events/{id}", h.removeEvent)
	r.Get("/events/{id}", h.userEvents)
	r.Post("/groups", h.createGroup)
	r.Put("/groups/{id}", h.updateGroup)
	r.Delete("/groups/{id}", h.removeGroup)
	r.Get("/groups/{id}", h.group)
	r.Get("/groups/{id}/events", h.groupEvents)
	r.Get("/users/{id}/groups", h.userGroups)

	return r
}

func (s *Server) Start(_ context.Context) error {
	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
