package sandboxclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/semaphore"

	judgeerr "judgecore/pkg/errors"
)

// Client is the Sandbox Client contract (spec §4.2): submit exec requests,
// manage uploaded/cached files. Grounded on the original's
// `sandbox::Client` (file_get/file_add/file_delete/file_list/exec).
type Client interface {
	Exec(ctx context.Context, cmds []Cmd) ([]Result, error)
	FileAdd(ctx context.Context, content []byte) (fileID string, err error)
	FileGet(ctx context.Context, fileID string) ([]byte, error)
	FileDelete(ctx context.Context, fileID string) error
	FileList(ctx context.Context) (map[string]string, error)
}

// HTTPClient is a Client backed by go-judge's REST API, the concrete
// sandbox wire protocol this module targets since no gRPC codegen is
// available here. Concurrent Exec calls are bounded by a semaphore sized
// to max_job, the same bound the original enforces with a
// `tokio::sync::Semaphore` around its gRPC exec call.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	sem        *semaphore.Weighted
	compress   bool
}

// WithCompression toggles gzip-compressed request bodies for /run and
// /file POSTs (Content-Encoding: gzip), which go-judge's REST transport
// accepts — worthwhile once a workflow's copy_in sources push multi-
// megabyte sources/inputs through the sandbox RPC. Off by default since
// small commands gain nothing from the compression overhead.
func (c *HTTPClient) WithCompression(enabled bool) *HTTPClient {
	c.compress = enabled
	return c
}

// NewHTTPClient builds a Client against baseURL, admitting at most maxJob
// concurrent Exec calls.
func NewHTTPClient(httpClient *http.Client, baseURL string, maxJob int64) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errNotConfigured
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		sem:        semaphore.NewWeighted(maxJob),
	}, nil
}

func (c *HTTPClient) Exec(ctx context.Context, cmds []Cmd) ([]Result, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	defer c.sem.Release(1)

	wire := make([]wireCmd, len(cmds))
	for i, cmd := range cmds {
		wire[i] = cmd.toWire()
	}

	var body []wireResult
	if err := c.postJSON(ctx, "/run", wireRunRequest{Cmd: wire}, &body); err != nil {
		return nil, err
	}
	results := make([]Result, len(body))
	for i, r := range body {
		results[i] = r.toResult()
	}
	return results, nil
}

func (c *HTTPClient) FileAdd(ctx context.Context, content []byte) (string, error) {
	var fileID string
	if err := c.postJSON(ctx, "/file", wireFile{Content: content}, &fileID); err != nil {
		return "", err
	}
	return fileID, nil
}

func (c *HTTPClient) FileGet(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/file/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, judgeerr.Newf(judgeerr.FileNotFound, "sandbox file %q not found", fileID).WithDetail("file_id", fileID)
	}
	if resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	return b, nil
}

func (c *HTTPClient) FileDelete(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/file/"+url.PathEscape(fileID), nil)
	if err != nil {
		return judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return c.errorFromResponse(resp)
	}
	return nil
}

func (c *HTTPClient) FileList(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/file", nil)
	if err != nil {
		return nil, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, c.errorFromResponse(resp)
	}
	var files map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	return files, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return judgeerr.Wrap(err, judgeerr.InvalidParams)
	}

	var bodyReader io.Reader = bytes.NewReader(b)
	if c.compress {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(b); err != nil {
			return judgeerr.Wrap(err, judgeerr.InvalidParams)
		}
		if err := gw.Close(); err != nil {
			return judgeerr.Wrap(err, judgeerr.InvalidParams)
		}
		bodyReader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.compress {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return judgeerr.Wrap(err, judgeerr.Sandbox)
	}
	return nil
}

func (c *HTTPClient) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return judgeerr.Newf(judgeerr.Sandbox, "sandbox returned status %d: %s", resp.StatusCode, string(body)).
		WithDetail("status_code", resp.StatusCode)
}

var _ Client = (*HTTPClient)(nil)

// errNotConfigured is returned by constructors given an empty base URL —
// mirrors the explicit base-URL guard in asfrgrtgd-tuis-oj-base's
// judge_client.go rather than deferring to a confusing connection-refused
// error later.
var errNotConfigured = fmt.Errorf("sandbox base URL not configured")
