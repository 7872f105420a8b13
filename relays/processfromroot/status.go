package processfromroot

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/sirupsen/logrus"
)

// Pinger reports whether the message store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type statusResponse struct {
	Domains []uint32 `json:"domains"`
	LastRun *Summary `json:"lastRun"`
}

// StatusServer exposes health, the last batch summary and metrics.
type StatusServer struct {
	address     string
	coordinator *Coordinator
	registry    *Registry
	store       Pinger
	gatherer    prometheus.Gatherer
}

func NewStatusServer(address string, coordinator *Coordinator, registry *Registry, store Pinger, gatherer prometheus.Gatherer) *StatusServer {
	return &StatusServer{
		address:     address,
		coordinator: coordinator,
		registry:    registry,
		store:       store,
		gatherer:    gatherer,
	}
}

func (s *StatusServer) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.health)
	router.GET("/status", s.status)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	return router
}

func (s *StatusServer) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *StatusServer) status(c *gin.Context) {
	resp := statusResponse{Domains: s.registry.Domains()}
	if last := s.coordinator.Last(); last != nil {
		summary := last.Summary()
		resp.LastRun = &summary
	}
	c.JSON(http.StatusOK, resp)
}

// Run serves until ctx is cancelled.
func (s *StatusServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("address", s.address).Info("Status server listening")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
