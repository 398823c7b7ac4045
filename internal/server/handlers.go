package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/hierbundle/pkg/buildinfo"
	apperrors "github.com/matzehuels/hierbundle/pkg/errors"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// Request is the body of POST /v1/layout and POST /v1/render.
//
// Document holds a JSON document inline. YAML and TOML documents are sent as
// a JSON string together with options.format.
type Request struct {
	Document json.RawMessage  `json:"document"`
	Options  pipeline.Options `json:"options"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

// contentTypes maps artifact formats to their media types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

// layout handles POST /v1/layout.
func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	data, opts, err := s.decodeRequest(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	result, err := s.runner.ComputeLayout(r.Context(), data, opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	l := result.Layout
	l.ID = uuid.NewString()
	setCacheHeader(w, result.CacheInfo.LayoutHit)
	writeJSON(w, http.StatusOK, l)
}

// render handles POST /v1/render.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, s.logger, err)
		return
	}

	data, opts, err := s.decodeRequest(w, r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	opts.Formats = []string{format}

	result, err := s.runner.Execute(r.Context(), data, opts)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	artifact, ok := result.Artifacts[format]
	if !ok {
		writeError(w, s.logger, apperrors.New(apperrors.ErrCodeUnsupported, "%s output is not available for %s", format, opts.VizType))
		return
	}

	setCacheHeader(w, result.CacheInfo.RenderHit)
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

// decodeRequest reads the request body and resolves the document bytes and
// the options, filling unset options from the server defaults.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) ([]byte, pipeline.Options, error) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pipeline.Options{}, apperrors.New(apperrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, pipeline.Options{}, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid request body: %v", err)
	}
	if len(req.Document) == 0 || string(req.Document) == "null" {
		return nil, pipeline.Options{}, apperrors.New(apperrors.ErrCodeInvalidInput, "document is required")
	}

	opts := s.withDefaults(req.Options)
	if req.Document[0] == '"' {
		var text string
		if err := json.Unmarshal(req.Document, &text); err != nil {
			return nil, pipeline.Options{}, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid document string: %v", err)
		}
		return []byte(text), opts, nil
	}
	if opts.Format != "" && opts.Format != graph.FormatJSON {
		return nil, pipeline.Options{}, apperrors.New(apperrors.ErrCodeInvalidInput,
			"%s documents must be sent as a string", opts.Format)
	}
	return req.Document, opts, nil
}

// withDefaults fills every unset field of opts from the server defaults.
func (s *Server) withDefaults(opts pipeline.Options) pipeline.Options {
	d := s.defaults
	if opts.Delimiter == "" {
		opts.Delimiter = d.Delimiter
	}
	if opts.VizType == "" {
		opts.VizType = d.VizType
	}
	if opts.Width == 0 {
		opts.Width = d.Width
	}
	if opts.Height == 0 {
		opts.Height = d.Height
	}
	if opts.Tension == nil {
		opts.Tension = d.Tension
	}
	if opts.Spline == "" {
		opts.Spline = d.Spline
	}
	if opts.Theme == "" {
		opts.Theme = d.Theme
	}
	opts.Logger = s.logger
	return opts
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes it as an ErrorResponse. Internal
// errors are logged; their message is still returned.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	e := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(e.Code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", e.Code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: e.Code, Message: apperrors.UserMessage(e)})
}

func errNotFound(r *http.Request) error {
	return apperrors.New(apperrors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}
