package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/capture"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
)

const (
	agentSelection = `{"type":"agent","name":"Planner","config":{"tools":[{"name":"lookup","type":"tool"}]}}`
	messagesJSON   = `[{"role":"user","content":"hello"}]`
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := capture.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"), 0)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	m := capture.NewManager(store, nil)
	t.Cleanup(func() { _ = m.Close() })

	cfg := config.NewDefaultConfig()
	cfg.AllowedOrigins = []string{"chrome-extension://*", "https://openai-curl-generator.vercel.app"}
	return NewServer(cfg, m)
}

func do(t *testing.T, s *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "")
	wantStatus(t, w, http.StatusOK)
	if got := gjson.Get(w.Body.String(), "status").String(); got != "ok" {
		t.Errorf("status field = %q, want ok", got)
	}
}

// ---------------------------------------------------------------------------
// convert / render
// ---------------------------------------------------------------------------

func TestConvert(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/convert",
		`{"tools":`+agentSelection+`,"messages":`+messagesJSON+`,"request":{"temperature":0.7}}`)
	wantStatus(t, w, http.StatusOK)

	out := gjson.Parse(w.Body.String())
	if got := out.Get("body.temperature").Float(); got != 0.7 {
		t.Errorf("temperature = %v, want 0.7 override", got)
	}
	if got := out.Get("body.tools.0.function.name").String(); got != "lookup" {
		t.Errorf("tool name = %q, want lookup", got)
	}
	if out.Get("messageCount").Int() != 1 || out.Get("toolCount").Int() != 1 {
		t.Errorf("counts = %s", w.Body.String())
	}
	if got := out.Get("agentName").String(); got != "Planner" {
		t.Errorf("agentName = %q, want Planner", got)
	}
}

func TestConvertAcceptsJSONText(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/convert", `{"messages":"[{\"role\":\"user\",\"content\":\"hi\"}]"}`)
	wantStatus(t, w, http.StatusOK)
	if got := gjson.Get(w.Body.String(), "body.messages.0.content").String(); got != "hi" {
		t.Errorf("content = %q, want hi", got)
	}
}

func TestConvertErrors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		body string
		want string
	}{
		{"no messages", `{}`, "Please enter valid Messages JSON array"},
		{"bad tools", `{"tools":"nope","messages":` + messagesJSON + `}`, "Please enter valid Tools JSON array"},
		{"all dropped", `{"messages":[{"role":"user","content":"  "}]}`, "No valid messages found after conversion. Please check your input."},
		{"bad body", `{`, "invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/convert", tc.body)
			wantStatus(t, w, http.StatusBadRequest)
			if got := gjson.Get(w.Body.String(), "error").String(); !strings.HasPrefix(got, tc.want) {
				t.Errorf("error = %q, want prefix %q", got, tc.want)
			}
		})
	}
}

func TestConvertUsesLatestCapture(t *testing.T) {
	s := newTestServer(t)
	wantStatus(t, do(t, s, http.MethodPost, "/v1/captures", `{"kind":"messages","payload":`+messagesJSON+`}`), http.StatusCreated)

	w := do(t, s, http.MethodPost, "/v1/convert", `{"tools":[]}`)
	wantStatus(t, w, http.StatusOK)
	if got := gjson.Get(w.Body.String(), "body.messages.0.content").String(); got != "hello" {
		t.Errorf("content = %q, want hello from the stored capture", got)
	}
}

func TestRender(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/render", `{"messages":`+messagesJSON+`}`)
	wantStatus(t, w, http.StatusOK)
	out := gjson.Parse(w.Body.String())
	if !strings.HasPrefix(out.Get("curl").String(), "curl --location 'https://api.openai.com/v1/chat/completions?api-version=2024-02-01&api-key=") {
		t.Errorf("curl = %q", out.Get("curl").String())
	}
	if !strings.HasPrefix(out.Get("powershell").String(), "$headers = @{") {
		t.Errorf("powershell = %q", out.Get("powershell").String())
	}
	if out.Get("tokens").Int() <= 0 {
		t.Errorf("tokens = %d, want > 0", out.Get("tokens").Int())
	}

	w = do(t, s, http.MethodPost, "/v1/render?format=ps", `{"messages":`+messagesJSON+`}`)
	wantStatus(t, w, http.StatusOK)
	if !strings.HasSuffix(w.Body.String(), "-Method Post -Headers $headers -Body $body") {
		t.Errorf("plain powershell = %q", w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/v1/render?format=xml", `{"messages":`+messagesJSON+`}`)
	wantStatus(t, w, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// extract / validate
// ---------------------------------------------------------------------------

func TestExtractAndSave(t *testing.T) {
	s := newTestServer(t)
	body := `{"mode":"tools","save":true,"snapshot":{"selection":` + jsonString(agentSelection) + `}}`
	w := do(t, s, http.MethodPost, "/v1/extract", body)
	wantStatus(t, w, http.StatusOK)

	out := gjson.Parse(w.Body.String())
	if !out.Get("ok").Bool() || out.Get("agentName").String() != "Planner" {
		t.Fatalf("result = %s", w.Body.String())
	}
	if out.Get("capture.id").String() == "" {
		t.Fatalf("capture missing: %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/v1/captures/tools/latest", "")
	wantStatus(t, w, http.StatusOK)
	if got := gjson.Get(w.Body.String(), "source").String(); got != "extract" {
		t.Errorf("source = %q, want extract", got)
	}
}

func TestExtractNotFound(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/extract", `{"mode":"messages","snapshot":{}}`)
	wantStatus(t, w, http.StatusOK)
	out := gjson.Parse(w.Body.String())
	if out.Get("ok").Bool() || !strings.HasPrefix(out.Get("error").String(), "Could not find conversation/messages array") {
		t.Errorf("result = %s", w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/v1/extract", `{"mode":"agents","snapshot":{}}`)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestExtractFrames(t *testing.T) {
	s := newTestServer(t)
	body := `{"mode":"tools","frames":[{},{"bodyText":"nothing here"},{"selection":` + jsonString(agentSelection) + `}]}`
	w := do(t, s, http.MethodPost, "/v1/extract/frames", body)
	wantStatus(t, w, http.StatusOK)
	if out := gjson.Parse(w.Body.String()); !out.Get("ok").Bool() || out.Get("count").Int() != 1 {
		t.Errorf("result = %s", w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/v1/extract/frames", `{"mode":"tools","frames":[]}`)
	wantStatus(t, w, http.StatusOK)
	if got := gjson.Get(w.Body.String(), "error").String(); got != "Capture failed: no frame results" {
		t.Errorf("error = %q", got)
	}
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/validate", `{"mode":"messages","text":"[{\"a\":1}]"}`)
	wantStatus(t, w, http.StatusOK)
	if got := gjson.Get(w.Body.String(), "warning").String(); got != "Doesn't look like messages array, but saving anyway" {
		t.Errorf("warning = %q", got)
	}

	w = do(t, s, http.MethodPost, "/v1/validate", `{"mode":"tools","text":"  "}`)
	wantStatus(t, w, http.StatusBadRequest)
	if got := gjson.Get(w.Body.String(), "error").String(); got != "Please paste JSON first" {
		t.Errorf("error = %q", got)
	}
}

// ---------------------------------------------------------------------------
// captures / prefill
// ---------------------------------------------------------------------------

func TestCaptureLifecycle(t *testing.T) {
	s := newTestServer(t)

	wantStatus(t, do(t, s, http.MethodGet, "/v1/captures/tools/latest", ""), http.StatusNotFound)
	wantStatus(t, do(t, s, http.MethodGet, "/v1/captures/agents/latest", ""), http.StatusBadRequest)
	wantStatus(t, do(t, s, http.MethodPost, "/v1/captures", `{"kind":"messages","payload":"{\"a\":1}"}`), http.StatusBadRequest)

	w := do(t, s, http.MethodPost, "/v1/captures", `{"kind":"tools","payload":`+agentSelection+`,"prefill":true}`)
	wantStatus(t, w, http.StatusCreated)
	if got := gjson.Get(w.Body.String(), "capture.agentName").String(); got != "Planner" {
		t.Errorf("agentName = %q", got)
	}

	w = do(t, s, http.MethodGet, "/v1/captures/tools?limit=5", "")
	wantStatus(t, w, http.StatusOK)
	if n := len(gjson.Get(w.Body.String(), "captures").Array()); n != 1 {
		t.Errorf("history length = %d, want 1", n)
	}

	w = do(t, s, http.MethodPost, "/v1/prefill/consume", "")
	wantStatus(t, w, http.StatusOK)
	out := gjson.Parse(w.Body.String())
	if !out.Get("pending").Bool() || out.Get("tools.kind").String() != "tools" {
		t.Errorf("consume = %s", w.Body.String())
	}
	w = do(t, s, http.MethodPost, "/v1/prefill/consume", "")
	if gjson.Get(w.Body.String(), "pending").Bool() {
		t.Error("prefill consumed twice")
	}

	wantStatus(t, do(t, s, http.MethodPost, "/v1/prefill", ""), http.StatusAccepted)
	wantStatus(t, do(t, s, http.MethodDelete, "/v1/captures/all", ""), http.StatusNoContent)
	wantStatus(t, do(t, s, http.MethodGet, "/v1/captures/tools/latest", ""), http.StatusNotFound)
	if gjson.Get(do(t, s, http.MethodPost, "/v1/prefill/consume", "").Body.String(), "pending").Bool() {
		t.Error("clear did not reset the prefill flag")
	}
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	s := newTestServer(t)
	wantStatus(t, do(t, s, http.MethodGet, "/v1/captures/tools?limit=-1", ""), http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// middleware
// ---------------------------------------------------------------------------

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodOptions, "/v1/extract", "", "Origin", "chrome-extension://abcdef")
	wantStatus(t, w, http.StatusNoContent)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "chrome-extension://abcdef" {
		t.Errorf("allow origin = %q", got)
	}

	w = do(t, s, http.MethodGet, "/healthz", "", "Origin", "https://evil.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin for unknown site = %q, want empty", got)
	}
}

func TestOriginAllowed(t *testing.T) {
	cases := []struct {
		allowed []string
		origin  string
		want    bool
	}{
		{[]string{"*"}, "https://any.example", true},
		{[]string{"chrome-extension://*"}, "chrome-extension://id", true},
		{[]string{"chrome-extension://*"}, "https://id", false},
		{[]string{"https://A.example"}, "https://a.example", true},
		{nil, "https://a.example", false},
	}
	for _, tc := range cases {
		if got := originAllowed(tc.allowed, tc.origin); got != tc.want {
			t.Errorf("originAllowed(%v, %q) = %v, want %v", tc.allowed, tc.origin, got, tc.want)
		}
	}
}

func TestUpdateConfig(t *testing.T) {
	s := newTestServer(t)
	cfg := config.NewDefaultConfig()
	cfg.Request.Temperature = 0.9
	s.UpdateConfig(cfg)

	w := do(t, s, http.MethodPost, "/v1/convert", `{"messages":`+messagesJSON+`}`)
	wantStatus(t, w, http.StatusOK)
	if got := gjson.Get(w.Body.String(), "body.temperature").Float(); got != 0.9 {
		t.Errorf("temperature = %v, want reloaded 0.9", got)
	}
}

func jsonString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
