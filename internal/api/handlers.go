package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/capture"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/json"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/render"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/translator/studio"
)

var errBadRequest = errors.New("bad request")

type extractRequest struct {
	Mode     string            `json:"mode"`
	Snapshot *extract.Snapshot `json:"snapshot"`
	// Save stores a successful result as the latest capture of its kind.
	Save bool `json:"save"`
}

type framesRequest struct {
	Mode   string             `json:"mode"`
	Frames []extract.Snapshot `json:"frames"`
	Save   bool               `json:"save"`
}

type validateRequest struct {
	Mode string `json:"mode"`
	Text string `json:"text"`
}

// generateRequest carries tools and messages either as JSON text or as the
// JSON value itself. An absent input falls back to the latest capture.
type generateRequest struct {
	Tools    json.RawMessage   `json:"tools"`
	Messages json.RawMessage   `json:"messages"`
	Request  *RequestOverrides `json:"request"`
}

type captureRequest struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Source  string          `json:"source"`
	Prefill bool            `json:"prefill"`
}

type extractResponse struct {
	extract.Result
	Capture *capture.Capture `json:"capture,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "ok", "sessions": s.hub.Sessions()})
}

func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}
	mode, err := extract.ParseMode(req.Mode)
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	res := s.currentExtractor().Extract(req.Snapshot, mode)
	s.respondExtract(c, mode, res, req.Save)
}

func (s *Server) handleExtractFrames(c *gin.Context) {
	var req framesRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}
	mode, err := extract.ParseMode(req.Mode)
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	ex := s.currentExtractor()
	results := make([]extract.Result, len(req.Frames))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(s.frameConcurrency)
	for i := range req.Frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = ex.Extract(&req.Frames[i], mode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		abortWithError(c, err)
		return
	}
	s.respondExtract(c, mode, extract.PickFrameResult(results), req.Save)
}

func (s *Server) respondExtract(c *gin.Context, mode extract.Mode, res extract.Result, save bool) {
	out := extractResponse{Result: res}
	if res.OK && save {
		saved, _, err := s.manager.Save(c.Request.Context(), capture.Kind(mode), res.Value, "extract")
		if err != nil {
			abortWithError(c, err)
			return
		}
		out.Capture = &saved
	}
	writeJSON(c, http.StatusOK, out)
}

func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}
	mode, err := extract.ParseMode(req.Mode)
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	v, err := extract.ValidatePaste(mode, req.Text)
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (s *Server) generate(c *gin.Context) (*studio.Output, bool) {
	var req generateRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return nil, false
	}
	ctx := c.Request.Context()
	tools, err := s.inputText(ctx, req.Tools, capture.KindTools)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	messages, err := s.inputText(ctx, req.Messages, capture.KindMessages)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}

	cfg := req.Request.Apply(s.config().Request)
	out, err := studio.Generate(tools, messages, cfg)
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return out, true
}

func (s *Server) handleConvert(c *gin.Context) {
	out, ok := s.generate(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"body":         json.RawMessage(out.Body),
		"messageCount": out.MessageCount,
		"toolCount":    out.ToolCount,
		"agentName":    out.AgentName,
	})
}

// handleRender answers with every rendering, or with one of them as plain
// text when ?format= is given.
func (s *Server) handleRender(c *gin.Context) {
	var format render.Format
	if f, ok := c.GetQuery("format"); ok {
		var err error
		if format, err = render.ParseFormat(f); err != nil {
			abortWithError(c, badRequest(err))
			return
		}
	}
	out, ok := s.generate(c)
	if !ok {
		return
	}
	res := render.Render(out.Request, out.Body)
	res.AgentName = out.AgentName
	if format != "" {
		c.String(http.StatusOK, res.Pick(format))
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (s *Server) handleSaveCapture(c *gin.Context) {
	var req captureRequest
	if err := bindJSON(c, &req); err != nil {
		abortWithError(c, err)
		return
	}
	kind, err := capture.ParseKind(req.Kind)
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	source := req.Source
	if source == "" {
		source = "paste"
	}
	ctx := c.Request.Context()
	saved, v, err := s.manager.Save(ctx, kind, rawText(req.Payload), source)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if req.Prefill {
		if err := s.manager.RequestPrefill(ctx); err != nil {
			abortWithError(c, err)
			return
		}
	}
	writeJSON(c, http.StatusCreated, gin.H{"capture": saved, "validation": v})
}

func (s *Server) handleLatest(c *gin.Context) {
	kind, err := capture.ParseKind(c.Param("kind"))
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	latest, err := s.manager.Latest(c.Request.Context(), kind)
	if err != nil {
		abortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, latest)
}

func (s *Server) handleHistory(c *gin.Context) {
	kind, err := capture.ParseKind(c.Param("kind"))
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			abortWithError(c, badRequest(fmt.Errorf("invalid limit %q", raw)))
			return
		}
	}
	items, err := s.manager.History(c.Request.Context(), kind, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if items == nil {
		items = []capture.Capture{}
	}
	writeJSON(c, http.StatusOK, gin.H{"captures": items})
}

// handleClear removes one kind, or every kind for "all".
func (s *Server) handleClear(c *gin.Context) {
	var kind capture.Kind
	if raw := c.Param("kind"); !strings.EqualFold(raw, "all") {
		var err error
		if kind, err = capture.ParseKind(raw); err != nil {
			abortWithError(c, badRequest(err))
			return
		}
	}
	if err := s.manager.Clear(c.Request.Context(), kind); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRequestPrefill(c *gin.Context) {
	if err := s.manager.RequestPrefill(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusAccepted, gin.H{"pending": true})
}

func (s *Server) handleConsumePrefill(c *gin.Context) {
	p, ok, err := s.manager.ConsumePrefill(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"pending": ok, "tools": p.Tools, "messages": p.Messages})
}

// inputText turns a tools/messages field into text, loading the latest
// capture of kind when the field is absent.
func (s *Server) inputText(ctx context.Context, raw json.RawMessage, kind capture.Kind) (string, error) {
	if text := rawText(raw); text != "" {
		return text, nil
	}
	latest, err := s.manager.Latest(ctx, kind)
	if errors.Is(err, capture.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"kind": kind, "id": latest.ID}).Debug("api: using latest capture")
	return latest.Payload, nil
}

// rawText unwraps a JSON string value; any other JSON value is returned as
// its own text.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	r := gjson.ParseBytes(raw)
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	}
	return strings.TrimSpace(string(raw))
}

func bindJSON(c *gin.Context, v any) error {
	data, err := c.GetRawData()
	if err != nil {
		return badRequest(fmt.Errorf("read body: %w", err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

func statusFor(err error) int {
	var verr *capture.ValidationError
	var ierr *studio.InputError
	switch {
	case errors.Is(err, capture.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.As(err, &verr),
		errors.As(err, &ierr),
		errors.Is(err, studio.ErrInvalidJSON),
		errors.Is(err, studio.ErrNoMessages):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if errors.Is(err, errBadRequest) {
		msg = strings.TrimPrefix(msg, errBadRequest.Error()+": ")
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	data, _ := json.Marshal(gin.H{"error": msg})
	c.Abort()
	c.Data(status, "application/json; charset=utf-8", data)
}

func writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
