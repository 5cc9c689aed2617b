package connection

import (
	"context"
	"errors"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"focustasks/config"
	"focustasks/controller"
	"focustasks/controller/device"
	"focustasks/controller/task"
	"focustasks/middleware"
	"focustasks/scheduler"
	"focustasks/services"
)

type Deps struct {
	Relay       *services.Relay
	Dispatcher  *services.Dispatcher
	Issuer      *services.TokenIssuer
	CORSOrigins []string
	Logger      *log.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Logger), middleware.CORS(d.CORSOrigins, d.Logger))

	controller.HealthController(router, d.Dispatcher)
	device.DeviceController(router, d.Relay, d.Issuer)
	task.TaskController(router, d.Relay, d.Issuer)

	return router
}

// StartServer wires the relay from cfg and serves until ctx is cancelled.
func StartServer(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	var app *firebase.App
	if cfg.NeedsFirebase() {
		a, err := FirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return err
		}
		app = a
	}

	repo, closeStore, err := OpenStore(ctx, cfg, app, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sender, err := NewSender(ctx, cfg, app, logger)
	if err != nil {
		return err
	}

	relay := services.NewRelay(repo, services.RelayOptions{Logger: logger})
	dispatcher := services.NewDispatcher(relay, sender, cfg.AppTasksURL)
	issuer := services.NewTokenIssuer(cfg.JWTSecret)
	if issuer != nil {
		logger.Info("device tokens enabled")
	}

	cron, err := scheduler.StartScheduler(ctx, dispatcher, logger)
	if err != nil {
		return err
	}
	defer func() { <-cron.Stop().Done() }()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(Deps{Relay: relay, Dispatcher: dispatcher, Issuer: issuer, CORSOrigins: cfg.CORSOrigins, Logger: logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Focus relay running", "port", cfg.Port, "store", cfg.StoreDriver, "push", dispatcher.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
