// Command function runs the Cloud Function locally through the Functions Framework.
package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/rs/zerolog/log"

	_ "github.com/pep299/article-markdown"
)

func main() {
	// FUNCTION_TARGET selects the registered function
	if os.Getenv("FUNCTION_TARGET") == "" {
		os.Setenv("FUNCTION_TARGET", "ConvertPage")
	}

	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	if err := funcframework.Start(port); err != nil {
		log.Fatal().Err(err).Msg("funcframework.Start")
	}
}
