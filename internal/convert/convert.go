package convert

import (
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Error wraps a failure of the HTML to Markdown library
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return "converting HTML to markdown: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Converter turns an HTML fragment into Markdown using the library's default rules
type Converter struct{}

// New creates a Converter
func New() *Converter {
	return &Converter{}
}

// Convert maps headings, paragraphs, lists, emphasis, links and code blocks to Markdown
func (c *Converter) Convert(fragment string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", &Error{Err: err}
	}
	return markdown, nil
}
