package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/session"
)

const sampleTree = `{
  "name": "proj",
  "children": [
    {"name": "main.go", "size": 120},
    {"name": "README.md", "size": 40},
    {"name": "pkg", "children": [
      {"name": "a.go", "size": 300},
      {"name": "b.go", "size": 200},
      {"name": "style.css", "size": 90}
    ]}
  ]
}`

func newTestServer(t *testing.T) (*httptest.Server, *pipeline.Runner) {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, logger)
	ts := httptest.NewServer(New(runner, logger).Handler())
	t.Cleanup(ts.Close)
	return ts, runner
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func layout(t *testing.T, ts *httptest.Server, req LayoutRequest) LayoutResponse {
	t.Helper()
	resp := postJSON(t, ts.URL+"/v1/layout", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out LayoutResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLayoutCreatesSession(t *testing.T) {
	ts, runner := newTestServer(t)

	out := layout(t, ts, LayoutRequest{Tree: json.RawMessage(sampleTree)})
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, 1, out.Passes)
	require.NotEmpty(t, out.Layout.Nodes)
	assert.Equal(t, "", out.Layout.Nodes[0].Path)
	_, ok := out.Layout.Find("pkg/a.go")
	assert.True(t, ok)

	sess, err := runner.Sessions.Get(t.Context(), out.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Positive(t, sess.Context.Len())
}

func TestLayoutReusesSession(t *testing.T) {
	ts, _ := newTestServer(t)

	first := layout(t, ts, LayoutRequest{Tree: json.RawMessage(sampleTree)})
	second := layout(t, ts, LayoutRequest{
		Tree:      json.RawMessage(sampleTree),
		SessionID: first.SessionID,
	})
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, second.Passes)
}

func TestLayoutErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing tree", LayoutRequest{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad session id", LayoutRequest{Tree: json.RawMessage(sampleTree), SessionID: "nope"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown session", LayoutRequest{Tree: json.RawMessage(sampleTree), SessionID: session.NewID()}, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"bad depth", LayoutRequest{Tree: json.RawMessage(sampleTree), Options: LayoutOptions{MaxDepth: -2}}, http.StatusBadRequest, "INVALID_DEPTH"},
		{"bad encoding", LayoutRequest{Tree: json.RawMessage(sampleTree), Options: LayoutOptions{ColorEncoding: "rainbow"}}, http.StatusBadRequest, "INVALID_ENCODING"},
		{"unknown field", map[string]any{"tree": json.RawMessage(sampleTree), "colour": 1}, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/v1/layout", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			var out errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, tt.code, string(out.Code))
			assert.NotEmpty(t, out.Message)
		})
	}
}

func TestRender(t *testing.T) {
	ts, _ := newTestServer(t)
	out := layout(t, ts, LayoutRequest{Tree: json.RawMessage(sampleTree)})
	raw, err := json.Marshal(out.Layout)
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+"/v1/render", RenderRequest{Layout: raw})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<svg")

	resp = postJSON(t, ts.URL+"/v1/render?format=png", RenderRequest{Layout: raw})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))

	resp = postJSON(t, ts.URL+"/v1/render?format=gif", RenderRequest{Layout: raw})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/v1/render", RenderRequest{Layout: json.RawMessage(`{"width":0,"height":0}`)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	out := layout(t, ts, LayoutRequest{Tree: json.RawMessage(sampleTree)})

	resp, err := http.Get(ts.URL + "/v1/sessions/" + out.SessionID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, out.SessionID, info.ID)
	assert.Equal(t, 1, info.Passes)
	assert.Contains(t, info.Context.TopLevel, "pkg")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/sessions/"+out.SessionID, nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	gone, err := http.Get(ts.URL + "/v1/sessions/" + out.SessionID)
	require.NoError(t, err)
	gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)

	bad, err := http.Get(ts.URL + "/v1/sessions/..%2F..%2Fetc")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestConcurrentPassesOnOneSession(t *testing.T) {
	ts, _ := newTestServer(t)
	first := layout(t, ts, LayoutRequest{Tree: json.RawMessage(sampleTree)})

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, _ := json.Marshal(LayoutRequest{Tree: json.RawMessage(sampleTree), SessionID: first.SessionID})
			resp, err := http.Post(ts.URL+"/v1/layout", "application/json", bytes.NewReader(data))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	resp, err := http.Get(ts.URL + "/v1/sessions/" + first.SessionID)
	require.NoError(t, err)
	defer resp.Body.Close()
	var info SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, n+1, info.Passes, "no pass may be lost to a concurrent write")
}
