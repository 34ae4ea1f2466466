// Package cloudfunctions exposes the converter page as a Google Cloud Function.
package cloudfunctions

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rs/zerolog/log"

	"github.com/pep299/article-markdown/internal/config"
	"github.com/pep299/article-markdown/internal/handlers"
	"github.com/pep299/article-markdown/internal/logging"
)

var (
	handlerOnce sync.Once
	handler     http.Handler
	handlerErr  error
)

func init() {
	functions.HTTP("ConvertPage", ConvertPage)
}

// ConvertPage is the HTTP function. It serves the same routes as cmd/server.
func ConvertPage(w http.ResponseWriter, r *http.Request) {
	handlerOnce.Do(func() {
		handler, handlerErr = createHandler()
	})
	if handlerErr != nil {
		log.Error().Err(handlerErr).Msg("Failed to create handler")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}

// createHandler builds the router once per instance
func createHandler() (http.Handler, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	// Cloud Logging parses JSON lines
	logging.Setup(cfg.LogLevel, "json")

	// Create server instance
	server, err := handlers.NewServer(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	return server.SetupRoutes(), nil
}
