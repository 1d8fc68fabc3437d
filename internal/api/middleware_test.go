package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/tidwall/gjson"
)

func compress(t *testing.T, encoding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "deflate":
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			t.Fatalf("flate.NewWriter failed: %v", err)
		}
		w = fw
	case "br":
		w = brotli.NewWriter(&buf)
	case "zstd":
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			t.Fatalf("zstd.NewWriter failed: %v", err)
		}
		w = zw
	default:
		t.Fatalf("unknown encoding %q", encoding)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return buf.Bytes()
}

func TestDecompressRequestBody(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"mode":"messages","text":"[{\"role\":\"user\",\"content\":\"hi\"}]"}`)

	for _, encoding := range []string{"gzip", "deflate", "br", "zstd"} {
		t.Run(encoding, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader(compress(t, encoding, body)))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Content-Encoding", encoding)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			wantStatus(t, w, http.StatusOK)
			if got := gjson.Get(w.Body.String(), "count").Int(); got != 1 {
				t.Errorf("count = %d, want 1", got)
			}
		})
	}
}

func TestDecompressRejectsUnknownEncoding(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/validate", `{}`, "Content-Encoding", "compress")
	wantStatus(t, w, http.StatusBadRequest)
	if got := gjson.Get(w.Body.String(), "error").String(); got != `unsupported content encoding "compress"` {
		t.Errorf("error = %q", got)
	}
}

func TestDecodeRequestBodyIdentity(t *testing.T) {
	in := io.NopCloser(bytes.NewReader([]byte("plain")))
	out, err := decodeRequestBody(in, "identity")
	if err != nil {
		t.Fatalf("decodeRequestBody failed: %v", err)
	}
	data, _ := io.ReadAll(out)
	if string(data) != "plain" {
		t.Errorf("body = %q, want plain", data)
	}
}
