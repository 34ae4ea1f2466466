package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pep299/article-markdown/internal/config"
	"github.com/pep299/article-markdown/internal/convert"
	"github.com/pep299/article-markdown/internal/extract"
	"github.com/pep299/article-markdown/internal/fetch"
	"github.com/pep299/article-markdown/internal/logging"
	"github.com/pep299/article-markdown/internal/model"
	"github.com/pep299/article-markdown/internal/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "article-markdown",
		Short:        "Convert the readable part of a web page to Markdown",
		SilenceUsage: true,
	}
	root.AddCommand(newConvertCmd())
	return root
}

func newConvertCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "convert <url>",
		Short: "Fetch a URL and print its article as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat)

			fetcher := fetch.NewClient(cfg.FetchTimeout,
				fetch.WithUserAgent(cfg.UserAgent),
				fetch.WithMaxBytes(cfg.FetchMaxBytes),
			)
			p := pipeline.New(fetcher, extract.New(), convert.New())

			ctx := log.Logger.WithContext(cmd.Context())
			return run(ctx, p, args[0], asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

type runner interface {
	Run(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error)
}

func run(ctx context.Context, p runner, url string, asJSON bool, out io.Writer) error {
	result, err := p.Run(ctx, model.ExtractionRequest{URL: url})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	markdown := result.Markdown
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	_, err = io.WriteString(out, markdown)
	return err
}
