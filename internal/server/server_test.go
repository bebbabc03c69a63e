package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/cutmark/internal/align"
	"github.com/MrWong99/cutmark/internal/analysis"
	"github.com/MrWong99/cutmark/internal/config"
	"github.com/MrWong99/cutmark/internal/server"
	"github.com/MrWong99/cutmark/pkg/words"
)

// newTestServer fills missing dependencies in cfg, mounts the handler on an
// httptest server and returns it together with the job manager.
func newTestServer(t *testing.T, cfg server.Config) (*httptest.Server, *server.Manager) {
	t.Helper()
	if cfg.Analyzer == nil {
		cfg.Analyzer = func() *analysis.Analyzer { return analysis.New() }
	}
	if cfg.Jobs == nil {
		cfg.Jobs = newManager(t, server.ManagerConfig{Analyzer: cfg.Analyzer})
	}
	srv, err := server.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, cfg.Jobs
}

// postJSON posts body and returns the response with its fully read body.
func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, data
}

func getBody(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, data
}

func TestAlignEndpoint_AnnotatesWords(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	body := `{
		"script": "hello world",
		"words": [
			{"text": "hello", "type": "word"},
			{"text": "world", "type": "word"},
			{"text": "banana", "type": "word"}
		]
	}`
	resp, data := postJSON(t, ts.URL+"/v1/align", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", resp.StatusCode, data)
	}

	var res align.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if want := []string{"hello", "world"}; len(res.ScriptTokens) != len(want) {
		t.Fatalf("script tokens = %v, want %v", res.ScriptTokens, want)
	}
	if len(res.MissingScriptIndices) != 0 {
		t.Errorf("missing indices = %v, want none", res.MissingScriptIndices)
	}
	if len(res.Words) != 3 {
		t.Fatalf("words = %d, want 3", len(res.Words))
	}
	if res.Words[0].Status != words.StatusNone || res.Words[1].Status != words.StatusNone {
		t.Errorf("matched words carry statuses %q/%q, want none", res.Words[0].Status, res.Words[1].Status)
	}
	if res.Words[2].Status != words.StatusBad || !res.Words[2].Selected {
		t.Errorf("trailing word = %q selected=%t, want bad and selected", res.Words[2].Status, res.Words[2].Selected)
	}
}

func TestAlignEndpoint_ReportsMissingScriptWords(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	body := `{
		"script": "hello brave world",
		"words": [
			{"text": "hello", "type": "word"},
			{"text": "world", "type": "word"}
		]
	}`
	resp, data := postJSON(t, ts.URL+"/v1/align", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", resp.StatusCode, data)
	}

	var res align.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.MissingScriptIndices) != 1 || res.MissingScriptIndices[0] != 1 {
		t.Errorf("missing indices = %v, want [1]", res.MissingScriptIndices)
	}
}

func TestAlignEndpoint_RequiresScript(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	resp, data := postJSON(t, ts.URL+"/v1/align", `{"words": []}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if !strings.Contains(string(data), "script is required") {
		t.Errorf("error body %q does not name the missing script", data)
	}
}

func TestAlignEndpoint_RejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	resp, _ := postJSON(t, ts.URL+"/v1/align", `{"script": "hi"`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRepeatsEndpoint_MarksRepeatedPhrases(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	body := `{
		"words": [
			{"text": "engine", "type": "word"},
			{"text": "restart", "type": "word"},
			{"text": "now", "type": "word"},
			{"text": "engine", "type": "word"},
			{"text": "restart", "type": "word"},
			{"text": "done", "type": "word"}
		]
	}`
	resp, data := postJSON(t, ts.URL+"/v1/repeats", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", resp.StatusCode, data)
	}

	var res struct {
		Words []*words.Word `json:"words"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Count != 4 {
		t.Errorf("count = %d, want 4", res.Count)
	}
	if len(res.Words) != 6 {
		t.Fatalf("words = %d, want 6", len(res.Words))
	}
	for _, i := range []int{0, 1, 3, 4} {
		if res.Words[i].Status != words.StatusRepeat {
			t.Errorf("words[%d] status = %q, want repeat", i, res.Words[i].Status)
		}
		if res.Words[i].Selected {
			t.Errorf("words[%d] is selected, repeats must stay deselected", i)
		}
	}
	for _, i := range []int{2, 5} {
		if res.Words[i].Status != words.StatusNone {
			t.Errorf("words[%d] status = %q, want none", i, res.Words[i].Status)
		}
	}
}

func TestIngestEndpoint_BuildsWordStream(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{
		Ingest: func() config.IngestConfig {
			return config.IngestConfig{FillerWords: []string{"um"}}
		},
	})

	body := `{
		"segments": [
			{"start": 0, "end": 1.5, "words": [
				{"word": "um", "start": 0, "end": 0.2},
				{"word": "hello", "start": 1.0, "end": 1.4}
			]}
		]
	}`
	resp, data := postJSON(t, ts.URL+"/v1/ingest", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", resp.StatusCode, data)
	}

	var res struct {
		Words []*words.Word `json:"words"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Words) != 3 {
		t.Fatalf("words = %d, want 3 (filler, gap, word)", len(res.Words))
	}
	if res.Words[0].Status != words.StatusBad || !res.Words[0].Selected {
		t.Errorf("filler = %q selected=%t, want bad and selected", res.Words[0].Status, res.Words[0].Selected)
	}
	if res.Words[1].Type != words.TypeInaudible {
		t.Errorf("gap record type = %q, want inaudible", res.Words[1].Type)
	}
	for i, w := range res.Words {
		if w.ID != i {
			t.Errorf("words[%d].ID = %d, want %d", i, w.ID, i)
		}
	}
}

func TestIngestEndpoint_RequestFillersOverrideConfig(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{
		Ingest: func() config.IngestConfig {
			return config.IngestConfig{FillerWords: []string{"um"}}
		},
	})

	body := `{
		"segments": [
			{"start": 0, "end": 1.5, "words": [
				{"word": "um", "start": 0, "end": 0.2},
				{"word": "hello", "start": 1.0, "end": 1.4}
			]}
		],
		"filler_words": ["hello"]
	}`
	resp, data := postJSON(t, ts.URL+"/v1/ingest", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", resp.StatusCode, data)
	}

	var res struct {
		Words []*words.Word `json:"words"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Words) == 0 {
		t.Fatal("no words returned")
	}
	if res.Words[0].Status != words.StatusNone {
		t.Errorf("um status = %q, want none when the request overrides fillers", res.Words[0].Status)
	}
	last := res.Words[len(res.Words)-1]
	if last.Status != words.StatusBad || !last.Selected {
		t.Errorf("hello = %q selected=%t, want bad and selected", last.Status, last.Selected)
	}
}

func TestIngestEndpoint_WeavesSilences(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	body := `{
		"segments": [
			{"start": 0, "end": 5, "words": [
				{"word": "hello", "start": 1.0, "end": 1.4},
				{"word": "world", "start": 4.0, "end": 4.2}
			]}
		],
		"silences": [{"start": 1.5, "end": 3.9}]
	}`
	resp, data := postJSON(t, ts.URL+"/v1/ingest", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", resp.StatusCode, data)
	}

	var res struct {
		Words []*words.Word `json:"words"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Words) != 3 {
		t.Fatalf("words = %d, want 3", len(res.Words))
	}
	if res.Words[1].Type != words.TypeSilence || res.Words[1].Text != "[SILENCE]" {
		t.Errorf("middle record = %q %q, want a [SILENCE] silence", res.Words[1].Type, res.Words[1].Text)
	}
}

func TestJobsEndpoint_Lifecycle(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	resp, data := postJSON(t, ts.URL+"/v1/jobs", `{
		"script": "hello world",
		"words": [
			{"text": "hello", "type": "word"},
			{"text": "world", "type": "word"}
		]
	}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body: %s", resp.StatusCode, data)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode job id: %v", err)
	}
	if created.ID == "" {
		t.Fatal("job id is empty")
	}

	deadline := time.Now().Add(5 * time.Second)
	var st server.JobStatus
	for {
		resp, data = getBody(t, ts.URL+"/v1/jobs/"+created.ID)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200; body: %s", resp.StatusCode, data)
		}
		if err := json.Unmarshal(data, &st); err != nil {
			t.Fatalf("decode job status: %v", err)
		}
		if st.State == server.JobDone {
			break
		}
		if !time.Now().Before(deadline) {
			t.Fatalf("job stuck in state %q", st.State)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if st.Result == nil || len(st.Result.Words) != 2 {
		t.Fatalf("job result = %+v, want two annotated words", st.Result)
	}
}

func TestJobsEndpoint_RequiresScript(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	resp, _ := postJSON(t, ts.URL+"/v1/jobs", `{"words": []}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestJobsEndpoint_UnknownJob(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	resp, _ := getBody(t, ts.URL+"/v1/jobs/no-such-job")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	resp, data := getBody(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"status":"ok"`) {
		t.Errorf("healthz body = %s, want an ok status", data)
	}

	resp, data = getBody(t, ts.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(data), `"jobs":"ok"`) {
		t.Errorf("readyz body = %s, want an ok jobs check", data)
	}
}

func TestReadyzReportsClosedJobManager(t *testing.T) {
	t.Parallel()

	ts, mgr := newTestServer(t, server.Config{})

	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	resp, data := getBody(t, ts.URL+"/readyz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503; body: %s", resp.StatusCode, data)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, server.Config{})

	resp, data := getBody(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(data), "go_goroutines") {
		t.Error("metrics exposition is missing the runtime collectors")
	}
}

func TestServer_RunServesAndStops(t *testing.T) {
	t.Parallel()

	mgr := newManager(t, server.ManagerConfig{
		Analyzer: func() *analysis.Analyzer { return analysis.New() },
	})
	srv, err := server.New(server.Config{
		Addr:     "127.0.0.1:0",
		Analyzer: func() *analysis.Analyzer { return analysis.New() },
		Jobs:     mgr,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for srv.ListenAddr() == nil {
		if !time.Now().Before(deadline) {
			cancel()
			t.Fatal("server never started listening")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, _ := getBody(t, "http://"+srv.ListenAddr().String()+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil after a graceful stop", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	analyzer := func() *analysis.Analyzer { return analysis.New() }
	mgr := newManager(t, server.ManagerConfig{Analyzer: analyzer})

	cases := []struct {
		name string
		cfg  server.Config
	}{
		{name: "missing analyzer", cfg: server.Config{Jobs: mgr}},
		{name: "missing jobs", cfg: server.Config{Analyzer: analyzer}},
		{name: "half-configured TLS", cfg: server.Config{Analyzer: analyzer, Jobs: mgr, CertFile: "cert.pem"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := server.New(tc.cfg); err == nil {
				t.Error("New should fail")
			}
		})
	}
}
