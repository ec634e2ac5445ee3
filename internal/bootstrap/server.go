package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/equb/api"
	"github.com/Domenick1991/equb/config"
	"github.com/Domenick1991/equb/internal/service/reservation"
	"github.com/Domenick1991/equb/internal/service/tickets"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// HealthCheck reports whether one backing service is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Dependencies struct {
	Tickets     tickets.TicketUseCase
	Reservation reservation.ReservationUseCase
	Settings    api.SettingsSource
	Receipts    api.ReceiptReader
	Health      []HealthCheck
}

// Run starts the HTTP server and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, deps Dependencies) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.HTTP.Address).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSeconds)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger())
	router.MaxMultipartMemory = cfg.Equb.MaxReceiptBytes + 1<<20

	router.GET("/healthz", healthHandler(deps.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFile("/docs/swagger.json", filepath.Join(cfg.HTTP.SwaggerDir, "swagger.json"))
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/swagger.json"))))
	}

	v1 := router.Group("/api/v1", api.Authenticator(), api.Settings(deps.Settings))
	api.NewTicketHandler(deps.Tickets).Register(v1.Group("/tickets"))
	api.NewPaymentHandler(deps.Reservation, deps.Receipts).Register(v1.Group("/payments"))
	api.NewAdminHandler(deps.Reservation).Register(v1.Group("/admin"))

	return router
}

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(gin.H, len(checks))
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				log.WithError(err).WithField("dependency", check.Name).Warn("health check failed")
				results[check.Name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[check.Name] = "up"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
	}
}
