package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// ErrNoContent means the page had no usable article content
var ErrNoContent = errors.New("no readable content")

// Error is returned when no article can be extracted from the page
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return "Could not extract readable content"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Article is the readable part of a page
type Article struct {
	Title       string
	Excerpt     string
	Byline      string
	SiteName    string
	Content     string // HTML fragment
	TextContent string
}

// Extractor finds the main article of an HTML document
type Extractor struct{}

// New creates an Extractor
func New() *Extractor {
	return &Extractor{}
}

// Extract parses rawHTML and runs the readability heuristic on it.
// pageURL is the page's own address and is used to resolve relative links.
func (e *Extractor) Extract(rawHTML string, pageURL string) (*Article, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &Error{URL: pageURL, Err: fmt.Errorf("parsing page URL: %w", err)}
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &Error{URL: pageURL, Err: fmt.Errorf("parsing HTML: %w", err)}
	}

	// readability rewrites the tree, so read the fallback title first
	fallbackTitle := firstHeading(doc)

	parsed, err := readability.FromDocument(doc, base)
	if err != nil {
		return nil, &Error{URL: pageURL, Err: err}
	}

	if strings.TrimSpace(parsed.Content) == "" || strings.TrimSpace(parsed.TextContent) == "" {
		return nil, &Error{URL: pageURL, Err: ErrNoContent}
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		title = fallbackTitle
	}

	return &Article{
		Title:       title,
		Excerpt:     strings.TrimSpace(parsed.Excerpt),
		Byline:      strings.TrimSpace(parsed.Byline),
		SiteName:    strings.TrimSpace(parsed.SiteName),
		Content:     parsed.Content,
		TextContent: parsed.TextContent,
	}, nil
}

// Readerable is a quick check of whether the page looks like an article
func Readerable(rawHTML string) bool {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return false
	}
	return readability.CheckDocument(doc)
}

func firstHeading(doc *html.Node) string {
	return strings.TrimSpace(goquery.NewDocumentFromNode(doc).Find("h1").First().Text())
}
