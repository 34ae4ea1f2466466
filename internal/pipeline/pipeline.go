package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pep299/article-markdown/internal/extract"
	"github.com/pep299/article-markdown/internal/model"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Extractor interface {
	Extract(rawHTML string, pageURL string) (*extract.Article, error)
}

type Converter interface {
	Convert(fragment string) (string, error)
}

// Pipeline runs fetch, extract and convert for a single URL
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	converter Converter
}

func New(fetcher Fetcher, extractor Extractor, converter Converter) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		converter: converter,
	}
}

// Run converts the page at req.URL to Markdown. The stage errors
// (*fetch.Error, *extract.Error, *convert.Error) are returned as-is.
func (p *Pipeline) Run(ctx context.Context, req model.ExtractionRequest) (*model.ExtractionResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("url", req.URL).Logger()
	startTime := time.Now()

	pageURL := strings.TrimSpace(req.URL)

	// Fetch phase
	fetchStart := time.Now()
	rawHTML, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	fetchDuration := time.Since(fetchStart)

	if event := logger.Debug(); event.Enabled() {
		event.Bool("readerable", extract.Readerable(rawHTML)).Int("html_bytes", len(rawHTML)).Msg("page fetched")
	}

	// Extraction phase
	article, err := p.extractor.Extract(rawHTML, pageURL)
	if err != nil {
		return nil, err
	}

	// Conversion phase
	markdown, err := p.converter.Convert(article.Content)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, &extract.Error{URL: pageURL, Err: fmt.Errorf("%w: empty markdown", extract.ErrNoContent)}
	}

	logger.Info().
		Int64("total_duration_ms", time.Since(startTime).Milliseconds()).
		Int64("fetch_duration_ms", fetchDuration.Milliseconds()).
		Int("markdown_bytes", len(markdown)).
		Msg("page converted")

	return &model.ExtractionResult{
		SourceURL: pageURL,
		Title:     article.Title,
		Excerpt:   article.Excerpt,
		Byline:    article.Byline,
		SiteName:  article.SiteName,
		Markdown:  markdown,
	}, nil
}
