package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pep299/article-markdown/internal/convert"
	"github.com/pep299/article-markdown/internal/extract"
	"github.com/pep299/article-markdown/internal/fetch"
	"github.com/pep299/article-markdown/internal/model"
	"github.com/pep299/article-markdown/internal/response"
)

//go:embed templates/index.html
var templates embed.FS

// copyResetDelay is how long the copy button shows its confirmation
const copyResetDelay = 2 * time.Second

const genericErrorMessage = "エラーが発生しました"

// pageData is what the page template renders
type pageData struct {
	URL             string
	Result          *model.ExtractionResult
	Error           string
	CopyResetMillis int64
}

func parsePage() (*template.Template, error) {
	return template.ParseFS(templates, "templates/index.html")
}

// pageHandler renders the form and, when a url is given, the conversion result or error
func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := model.ExtractionRequest{URL: r.URL.Query().Get("url")}

	data := pageData{
		URL:             req.URL,
		CopyResetMillis: copyResetDelay.Milliseconds(),
	}

	if !req.Empty() {
		result, err := s.pipeline.Run(ctx, req)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("url", req.URL).Msg("conversion failed")
			data.Error = userMessage(err)
		} else {
			data.Result = result
		}
	}

	// Render into a buffer so a template failure does not leave a half page
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("rendering page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// extractHandler returns the conversion result as JSON
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := model.ExtractionRequest{URL: r.URL.Query().Get("url")}

	if req.Empty() {
		response.WriteBadRequest(w, "url is required")
		return
	}

	result, err := s.pipeline.Run(ctx, req)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("url", req.URL).Msg("conversion failed")

		var fetchErr *fetch.Error
		var extractErr *extract.Error
		switch {
		case errors.As(err, &fetchErr):
			response.WriteBadGateway(w, fetchErr.Error())
		case errors.As(err, &extractErr):
			response.WriteUnprocessable(w, extractErr.Error())
		default:
			response.WriteInternalError(w, userMessage(err))
		}
		return
	}

	response.WriteSuccess(w, "Page converted successfully", result)
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   Version,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// userMessage reduces a pipeline error to the single line shown on the page
func userMessage(err error) string {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return fetchErr.Error()
	}
	var extractErr *extract.Error
	if errors.As(err, &extractErr) {
		return extractErr.Error()
	}
	var convertErr *convert.Error
	if errors.As(err, &convertErr) {
		return convertErr.Error()
	}
	return genericErrorMessage
}
