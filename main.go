package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "tourbook/internal/config"
	intdb "tourbook/internal/db"
	router "tourbook/internal/http"
	"tourbook/internal/http/handlers"
	"tourbook/internal/http/middleware"
	"tourbook/internal/idempotency"
	"tourbook/internal/media"
	"tourbook/internal/notify"
	"tourbook/internal/repositories"
	"tourbook/internal/services"
	"tourbook/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

const devJWTSecret = "tourbook-dev-secret"

func main() {
	env := intconfig.LoadEnv()
	if err := env.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	tp, err := telemetry.Setup(env.TraceExporter, os.Stdout)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	conn, err := intconfig.ConnectDB(env)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer intconfig.CloseDB()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := intdb.Migrate(migrateCtx, conn); err != nil {
		cancelMigrate()
		log.Fatalf("migrate: %v", err)
	}
	cancelMigrate()

	store := repositories.NewStore(conn,
		intdb.TxOptions{LockWait: env.TxLockTimeout, Timeout: env.TxTimeout},
		intdb.RetryPolicy{Attempts: env.TxRetryAttempts, Backoff: env.TxRetryBackoff},
	)

	dispatcher := notify.NewDispatcher(buildSinks(env))
	dispatcher.Start()

	idem, err := idempotency.Open(env.IdempotencyDBPath, env.IdempotencyTTL)
	if err != nil {
		log.Fatalf("idempotency store: %v", err)
	}

	signer, err := media.NewCloudinarySigner(env.CloudinaryURL, "tourbook")
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	secret := env.JWTSecret
	if secret == "" {
		log.Println("warning: JWT_SECRET is empty, using the development secret")
		secret = devJWTSecret
	}

	deps := services.Deps{Store: store, Notifier: dispatcher}
	hd := &handlers.Handler{
		Deps:      deps,
		Auth:      services.AuthService{Deps: deps, Secret: []byte(secret), TTL: env.JWTTTL},
		Analytics: repositories.AnalyticsRepository{DB: conn},
		Signer:    signer,
		Ping:      func(ctx context.Context) error { return intdb.Ping(ctx, conn) },
	}

	scheduler := startJobs(env, deps, idem)

	var idemStore middleware.IdempotencyStore = idem
	r := router.NewRouter(env, hd, idemStore)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("tourbook listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-scheduler.Stop().Done()
	if err := dispatcher.Close(ctx); err != nil {
		log.Printf("notify shutdown: %v", err)
	}
	if err := idem.Close(); err != nil {
		log.Printf("idempotency close: %v", err)
	}
	if err := telemetry.Shutdown(ctx, tp); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}

	log.Println("server stopped.")
}

// buildSinks always logs events and adds e-mail and Kafka delivery when configured.
func buildSinks(env intconfig.Env) []notify.Sink {
	sinks := []notify.Sink{notify.LogSink{}}
	if email := notify.NewEmailSender(env.BrevoAPIKey, env.EmailSender, env.EmailSenderName); email != nil {
		sinks = append(sinks, email)
	}
	if kafka := notify.NewKafkaPublisher(env.KafkaBrokers, env.KafkaTopic); kafka != nil {
		sinks = append(sinks, kafka)
	}
	return sinks
}

// startJobs schedules the departed-spot sweep and the idempotency purge.
func startJobs(env intconfig.Env, deps services.Deps, idem *idempotency.BoltStore) *cron.Cron {
	c := cron.New()
	if env.SweepSchedule != "" {
		_, err := c.AddFunc(env.SweepSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			res, err := services.SweepService{Deps: deps.WithRequest("sweep")}.CompleteDeparted(ctx)
			if err != nil {
				log.Printf("[SWEEP] failed: %v", err)
				return
			}
			log.Printf("[SWEEP] spots=%d completed=%d cancelled=%d skipped=%d", res.Spots, res.Completed, res.Cancelled, res.Skipped)
		})
		if err != nil {
			log.Fatalf("invalid SWEEP_SCHEDULE %q: %v", env.SweepSchedule, err)
		}
	}
	if _, err := c.AddFunc("@hourly", func() {
		n, err := idem.Purge(time.Now().UTC())
		if err != nil {
			log.Printf("[IDEMPOTENCY] purge failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[IDEMPOTENCY] purged %d expired keys", n)
		}
	}); err != nil {
		log.Fatalf("schedule idempotency purge: %v", err)
	}
	c.Start()
	return c
}
