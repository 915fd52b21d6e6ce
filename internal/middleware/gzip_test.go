package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// echoEnvelope отвечает конвертом API, повторяя тело запроса в поле message.
func echoEnvelope(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": string(body),
	})
}

func gzipBytes(t *testing.T, s string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func TestGzipMiddleware(t *testing.T) {
	const contactJSON = `{"name":"Abebe","subject":"delivery"}`

	tests := []struct {
		name           string
		body           io.Reader
		acceptEncoding string
		gzippedRequest bool
		wantStatus     int
		wantEncoding   string
		wantMessage    string
	}{
		{
			name:           "ответ сжимается для клиента с gzip",
			body:           strings.NewReader(contactJSON),
			acceptEncoding: "gzip",
			wantStatus:     http.StatusOK,
			wantEncoding:   "gzip",
			wantMessage:    contactJSON,
		},
		{
			name:         "ответ не сжимается без Accept-Encoding",
			body:         strings.NewReader(contactJSON),
			wantStatus:   http.StatusOK,
			wantEncoding: "",
			wantMessage:  contactJSON,
		},
		{
			name:           "сжатое тело запроса распаковывается",
			body:           nil, // заполняется в тесте
			acceptEncoding: "gzip",
			gzippedRequest: true,
			wantStatus:     http.StatusOK,
			wantEncoding:   "gzip",
			wantMessage:    contactJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if tt.gzippedRequest {
				body = gzipBytes(t, contactJSON)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/contact", body)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			if tt.gzippedRequest {
				req.Header.Set("Content-Encoding", "gzip")
			}

			w := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoEnvelope)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if ce := res.Header.Get("Content-Encoding"); ce != tt.wantEncoding {
				t.Fatalf("Content-Encoding = %q, want %q", ce, tt.wantEncoding)
			}

			reader := io.Reader(res.Body)
			if tt.wantEncoding == "gzip" {
				zr, err := gzip.NewReader(res.Body)
				if err != nil {
					t.Fatalf("gzip reader: %v", err)
				}
				defer zr.Close()
				reader = zr
			}

			var envelope struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(reader).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if !envelope.Success {
				t.Fatalf("success = false, want true")
			}
			if envelope.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", envelope.Message, tt.wantMessage)
			}
		})
	}
}

func TestGzipMiddlewareRejectsBrokenBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("not a gzip stream"))
	req.Header.Set("Content-Encoding", "gzip")

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(echoEnvelope)).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
