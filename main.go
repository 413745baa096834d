package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/bootstrap"
	btsConfig "github.com/AlexYAT/vedic-astrologer-bot/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"

	"github.com/gin-gonic/gin"
)

func init() {
	// Register the config sections under config/.
	btsConfig.Initialize()
}

// App carries the HTTP server for graceful shutdown.
type App struct {
	server *http.Server
}

func main() {
	env := parseFlags()

	if err := setupApplication(env); err != nil {
		log.Fatalf("application setup failed: %v", err)
	}

	router := setupServer()

	app := &App{
		server: &http.Server{
			Addr:    ":" + config.Get("app.port"),
			Handler: router,
		},
	}

	app.start()
}

// parseFlags reads the env suffix, e.g. --env=testing loads .env.testing.
func parseFlags() string {
	var env string
	flag.StringVar(&env, "env", "", "load .env file, e.g. --env=testing loads .env.testing")
	flag.Parse()
	return env
}

func setupApplication(env string) error {
	config.InitConfig(env)

	bootstrap.SetupLogger()

	// Store first: legacy adoption and schema migration must settle
	// before anything can touch the tables.
	bootstrap.SetupDB()

	bootstrap.SetupRedis()

	// External clients before the workers that use them.
	bootstrap.SetupClients()

	bootstrap.SetupQueue()

	return nil
}

func setupServer() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	bootstrap.SetupRoute(router)

	return router
}

func (a *App) start() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on %s\n", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	// Let in-flight forecasts finish before the process exits.
	bootstrap.StopQueue()

	log.Println("server stopped")
}
