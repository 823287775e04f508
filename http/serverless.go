package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/core"
	"github.com/sleeautomation/sitehooks/feed"
	"github.com/sleeautomation/sitehooks/intake"
	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/telemetry"
)

var (
	feedOnce    sync.Once
	feedHandler http.Handler

	intakeOnce    sync.Once
	intakeHandler http.Handler
)

// serverlessConfig reads configuration from the environment only; functions
// ship without a config file.
func serverlessConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if err := core.ResolveSecrets(context.Background(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FeedFunction is the Vercel entry point for the blog post feed.
func FeedFunction(w http.ResponseWriter, r *http.Request) {
	feedOnce.Do(func() {
		var h http.Handler
		if cfg, err := serverlessConfig(); err != nil {
			logger.Error("feed init failed: %v", err)
			h = unavailableFeed(err)
		} else {
			h = core.NewFeedHandler(cfg)
		}
		feedHandler = telemetry.WrapHandler("feed", h)
	})
	feedHandler.ServeHTTP(w, r)
}

// IntakeFunction is the Vercel entry point for the lead intake webhook.
func IntakeFunction(w http.ResponseWriter, r *http.Request) {
	intakeOnce.Do(func() {
		intakeHandler = telemetry.WrapHandler("intake", newServerlessIntake())
	})
	intakeHandler.ServeHTTP(w, r)
}

func newServerlessIntake() http.Handler {
	cfg, err := serverlessConfig()
	if err == nil {
		var deps *core.Intake
		// Token refreshes outlive any single request.
		if deps, err = core.InitializeIntake(context.Background(), cfg); err == nil {
			return deps.Handler
		}
	}
	logger.Error("intake init failed: %v", err)
	return unavailableIntake(err)
}

// ResetServerless drops the cached handlers (for testing).
func ResetServerless() {
	feedOnce = sync.Once{}
	feedHandler = nil
	intakeOnce = sync.Once{}
	intakeHandler = nil
}

func unavailableFeed(err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feed.SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		feed.WriteError(w, err)
	})
}

func unavailableIntake(err error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		intake.WriteJSON(w, http.StatusOK, intake.Result{
			Failure: &intake.Failure{Kind: intake.KindSheetAccess, Err: err},
		})
	})
}
