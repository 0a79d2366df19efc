// Command demo runs a minimal web application wired through the
// authbridge loader: a public index, a protected dashboard, the OAuth
// callback, sign-out and organization switching.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sessionworks/authbridge/auth"
	"github.com/sessionworks/authbridge/config"
	"github.com/sessionworks/authbridge/metrics"
	"github.com/sessionworks/authbridge/provider"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("demo server failed")
	}
	log.Info().Msg("server stopped")
}

func run() error {
	displayAppName("authbridge")

	cfg := config.New()

	providerClient, err := provider.NewHTTPClient(cfg, provider.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	engine, err := auth.NewEngine(cfg, providerClient, auth.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	loader := auth.NewLoader(engine)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		outcome, err := loader.Load(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = outcome.Write(w)
	})

	router.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		outcome, err := loader.LoadWith(r, dashboardHandler, auth.EnsureSignedIn())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = outcome.Write(w)
	})

	router.Get("/callback", loader.CallbackHandler().ServeHTTP)

	router.Get("/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = loader.SignOut(r, auth.SignOutOpts{ReturnTo: "/"}).Write(w)
	})

	router.Post("/switch-org", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OrganizationID string `json:"organizationId"`
			ReturnTo       string `json:"returnTo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		_ = loader.SwitchToOrganization(r, body.OrganizationID, auth.SwitchOpts{
			ReturnTo: body.ReturnTo,
		}).Write(w)
	})

	router.Handle("/metrics", metrics.Handler())

	server := &http.Server{Addr: listenAddr(), Handler: router}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func dashboardHandler(args auth.HandlerArgs) (auth.HandlerResult, error) {
	return auth.Data(map[string]any{
		"page": "dashboard",
	}), nil
}

func listenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func displayAppName(name string) {
	banner := figure.NewFigure(name, "cybermedium", true)
	banner.Print()
	fmt.Println()
}
