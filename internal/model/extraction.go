package model

import "strings"

type ExtractionRequest struct {
	URL string `json:"url"`
}

// Empty reports whether there is nothing to convert, in which case only the form is shown
func (r ExtractionRequest) Empty() bool {
	return strings.TrimSpace(r.URL) == ""
}

type ExtractionResult struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Byline    string `json:"byline,omitempty"`
	SiteName  string `json:"site_name,omitempty"`
	Markdown  string `json:"markdown"`
}
