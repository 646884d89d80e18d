package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgnsrekt/docent/generate"
	"github.com/dgnsrekt/docent/internal/share"
	"github.com/dgnsrekt/docent/tts"
)

type fakeUpstream struct {
	chunks []string
	err    error // yielded after chunks
	setup  error // returned by Generate
	got    generate.Request
}

func (f *fakeUpstream) Generate(_ context.Context, req generate.Request) (tts.Stream, error) {
	f.got = req
	if f.setup != nil {
		return nil, f.setup
	}
	return func(yield func(tts.Chunk, error) bool) {
		for _, c := range f.chunks {
			if !yield(tts.Chunk{Text: c}, nil) {
				return
			}
		}
		if f.err != nil {
			yield(tts.Chunk{}, f.err)
		}
	}, nil
}

func testConfig() Config {
	return Config{MetricsEnabled: true}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rec
}

func events(t *testing.T, body io.Reader) []generate.Event {
	t.Helper()
	var out []generate.Event
	for ev, err := range generate.ReadEvents(body) {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, ev)
	}
	return out
}

func TestGenerateStreamsChunks(t *testing.T) {
	up := &fakeUpstream{chunks: []string{"이것은 ", "", "그림입니다."}}
	s := New(testConfig(), up, nil)

	img := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})
	rec := post(t, s, "/api/generate", `{"prompt":"설명해줘","base64Image":"`+img+`","systemInstruction":"sys"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}

	got := events(t, rec.Body)
	if len(got) != 2 || got[0].Text != "이것은 " || got[1].Text != "그림입니다." {
		t.Errorf("events = %+v, want the two non-empty chunks", got)
	}

	if up.got.Prompt != "설명해줘" || up.got.SystemInstruction != "sys" {
		t.Errorf("upstream request = %+v", up.got)
	}
	if up.got.Image == nil || up.got.Image.MIMEType != "image/jpeg" || len(up.got.Image.Data) != 4 {
		t.Errorf("image = %+v, want decoded with the default MIME type", up.got.Image)
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	tests := []struct {
		name string
		up   *fakeUpstream
		want []generate.Event
	}{
		{
			name: "setup",
			up:   &fakeUpstream{setup: errors.New("dial tcp: refused")},
			want: []generate.Event{{Error: msgGenerateFailed}},
		},
		{
			name: "mid stream",
			up:   &fakeUpstream{chunks: []string{"Hello."}, err: errors.New("stream reset")},
			want: []generate.Event{{Text: "Hello."}, {Error: msgGenerateFailed}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, New(testConfig(), tt.up, nil), "/api/generate", `{"prompt":"hi"}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			got := events(t, rec.Body)
			if len(got) != len(tt.want) {
				t.Fatalf("events = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGenerateRejects(t *testing.T) {
	up := &fakeUpstream{}
	tests := []struct {
		name     string
		upstream Upstream
		method   string
		body     string
		status   int
	}{
		{"get", up, http.MethodGet, "", http.StatusMethodNotAllowed},
		{"no key", nil, http.MethodPost, `{"prompt":"hi"}`, http.StatusInternalServerError},
		{"bad json", up, http.MethodPost, `{`, http.StatusBadRequest},
		{"bad base64", up, http.MethodPost, `{"base64Image":"***"}`, http.StatusBadRequest},
		{"empty request", up, http.MethodPost, `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testConfig(), tt.upstream, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/generate", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	rec := post(t, New(testConfig(), nil, nil), "/api/generate", `{"prompt":"hi"}`)
	var ev generate.Event
	if err := json.NewDecoder(rec.Body).Decode(&ev); err != nil || ev.Error != msgMisconfigured {
		t.Errorf("error = %+v (%v)", ev, err)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerMinute = 1
	s := New(cfg, &fakeUpstream{chunks: []string{"ok."}}, nil)

	if rec := post(t, s, "/api/generate", `{"prompt":"a"}`); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	if rec := post(t, s, "/api/generate", `{"prompt":"b"}`); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}

	// another client has its own bucket
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"prompt":"c"}`))
	req.RemoteAddr = "10.0.0.9:5555"
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestShareRoutes(t *testing.T) {
	store, err := share.OpenStore("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	srv := httptest.NewServer(New(testConfig(), nil, store))
	defer srv.Close()

	c := share.NewClient(srv.URL+"/api/share", srv.Client())
	id, err := c.Create(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	g, err := c.Get(context.Background(), id)
	if err != nil || len(g.ContentIDs) != 3 {
		t.Errorf("Get() = %+v, %v", g, err)
	}

	rec := httptest.NewRecorder()
	New(testConfig(), nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/share?id=x", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("share without a store: status = %d, want 404", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := New(testConfig(), &fakeUpstream{}, nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var health map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "healthy" || health["upstream"] != true {
		t.Errorf("health = %v", health)
	}

	post(t, s, "/api/generate", `{"prompt":"x"}`)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "docent_requests_total") {
		t.Error("metrics should include docent_requests_total")
	}
}

func TestProxyBackendAgainstServer(t *testing.T) {
	up := &fakeUpstream{chunks: []string{"First. ", "Second."}}
	srv := httptest.NewServer(New(testConfig(), up, nil))
	defer srv.Close()

	backend := generate.NewProxy(srv.URL+"/api/generate", srv.Client())
	stream, err := backend.Stream(context.Background(), generate.Request{
		Prompt: "describe",
		Image:  &generate.Image{Data: []byte("webp"), MIMEType: "image/webp"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var text strings.Builder
	for chunk, err := range stream {
		if err != nil {
			t.Fatal(err)
		}
		text.WriteString(chunk.Text)
	}
	if text.String() != "First. Second." {
		t.Errorf("text = %q", text.String())
	}
	if up.got.Image == nil || up.got.Image.MIMEType != "image/webp" || string(up.got.Image.Data) != "webp" {
		t.Errorf("image = %+v", up.got.Image)
	}
}

func TestConfigKey(t *testing.T) {
	if k := (Config{GeminiAPIKey: "g"}).Key(); k != "g" {
		t.Errorf("Key() = %q", k)
	}
	if k := (Config{APIKey: "a", GeminiAPIKey: "g"}).Key(); k != "a" {
		t.Errorf("Key() = %q", k)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DOCENT_LISTEN", ":9999")
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "secret")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9999" || cfg.Key() != "secret" || cfg.RequestsPerMinute != 30 {
		t.Errorf("cfg = %+v", cfg)
	}
}
