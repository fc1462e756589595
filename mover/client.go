package mover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mattn/go-ieproxy"
	"github.com/pkg/errors"
)

// defaultControlTimeout is the default timeout for control-plane RPCs
// (spec §5 "Control-plane RPCs default to 60 s").
const defaultControlTimeout = 60 * time.Second

// pollInterval is how often Client.AwaitJob polls job/status while a copy
// runs asynchronously (spec §4.5).
const pollInterval = 500 * time.Millisecond

// ProgressFunc receives intermediate progress numbers while a copy job
// runs (spec §4.5, "forwarding intermediate progress numbers").
type ProgressFunc func(progress float64)

// Client is a plain request/response JSON-over-HTTP client for the
// external data mover's control API (spec §4.5, §6.1). It is the only
// component in this repo that makes outbound HTTP calls.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a facade pointed at baseURL. The transport's Proxy func
// is set from mattn/go-ieproxy so outbound calls honour the host's
// configured system/IE proxy, the way azcopy's common/proxy_forwarder
// files wire ieproxy.GetProxyFunc() into their own HTTP transport.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultControlTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = ieproxy.GetProxyFunc()
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Transport: transport, Timeout: timeout},
		timeout: timeout,
	}
}

func (c *Client) call(ctx context.Context, method Method, params interface{}, result interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "marshalling rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method.Pattern(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s", method)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "reading %s response", method)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("%s: data mover returned status %d: %s", method, resp.StatusCode, string(respBody))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return errors.Wrapf(err, "decoding %s response", method)
	}
	return nil
}

// Noop is a health check against the data mover (spec §6.1 rc/noop).
func (c *Client) Noop(ctx context.Context) error {
	return c.call(ctx, MethodNoop, map[string]interface{}{}, &struct{}{})
}

// List enumerates a filesystem path, optionally recursively (spec §4.5,
// §6.1 operations/list). This is the one call start() blocks on for up to
// the 5-minute enumeration ceiling (spec §5).
func (c *Client) List(ctx context.Context, fs string, path string, recursive bool) ([]ListEntry, error) {
	params := map[string]interface{}{
		"fs":   fs,
		"remote": path,
		"opt": map[string]interface{}{"recurse": recursive},
	}
	var resp listResponse
	if err := c.call(ctx, MethodList, params, &resp); err != nil {
		return nil, err
	}
	return resp.List, nil
}

// CopyFile starts an asynchronous per-file copy and returns the mover's
// job id (spec §4.5, §6.1 operations/copyfile with _async: true).
func (c *Client) CopyFile(ctx context.Context, opts CopyFileOptions) (int64, error) {
	params := map[string]interface{}{
		"srcFs":     opts.SrcFs,
		"srcRemote": opts.SrcRemote,
		"dstFs":     opts.DstFs,
		"dstRemote": opts.DstRemote,
		"_async":    true,
	}
	for k, v := range opts.Extra {
		params[k] = v
	}
	var resp copyFileResponse
	if err := c.call(ctx, MethodCopyFile, params, &resp); err != nil {
		return 0, err
	}
	return resp.JobID, nil
}

// JobStatus polls the mover's job status once (spec §6.1 job/status).
func (c *Client) JobStatus(ctx context.Context, jobID int64) (JobStatusResult, error) {
	var resp JobStatusResult
	err := c.call(ctx, MethodJobStatus, map[string]interface{}{"jobid": jobID}, &resp)
	return resp, err
}

// StopJob issues job/stop; used by abort as a best-effort cleanup of an
// orphaned async copy (spec §5 Cancellation). Completion of this call is
// not required for abort to return, so callers typically run it with a
// short-lived context and ignore a context-deadline error.
func (c *Client) StopJob(ctx context.Context, jobID int64) error {
	return c.call(ctx, MethodJobStop, map[string]interface{}{"jobid": jobID}, &struct{}{})
}

// About reports total/used/free bytes for a filesystem (spec §6.1
// operations/about).
func (c *Client) About(ctx context.Context, fs string) (AboutResult, error) {
	var resp AboutResult
	err := c.call(ctx, MethodAbout, map[string]interface{}{"fs": fs}, &resp)
	return resp, err
}

// PublicLink requests a shareable URL for a remote object, used by the
// out-of-scope ghost-link collaborator (spec §9).
func (c *Client) PublicLink(ctx context.Context, fs, remote string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	err := c.call(ctx, MethodPublicLink, map[string]interface{}{"fs": fs, "remote": remote}, &resp)
	return resp.URL, err
}

// CoreStats returns the mover's raw core/stats payload, forwarded verbatim.
func (c *Client) CoreStats(ctx context.Context) (map[string]interface{}, error) {
	var resp map[string]interface{}
	err := c.call(ctx, MethodCoreStats, map[string]interface{}{}, &resp)
	return resp, err
}

// Hashsum requests a checksum of a remote object using the named algorithm.
func (c *Client) Hashsum(ctx context.Context, fs, remote, algo string) (string, error) {
	var resp map[string]string
	err := c.call(ctx, MethodHashsum, map[string]interface{}{"fs": fs, "remote": remote, "hashType": algo}, &resp)
	if err != nil {
		return "", err
	}
	return resp[remote], nil
}

// AwaitJob polls job/status on a fixed interval until finished=true,
// forwarding intermediate progress numbers to onProgress (spec §4.5). It
// returns promptly if ctx is cancelled, which is how abort interrupts a
// worker parked here (spec §5 Cancellation).
func (c *Client) AwaitJob(ctx context.Context, jobID int64, onProgress ProgressFunc) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status, err := c.JobStatus(ctx, jobID)
			if err != nil {
				return err
			}
			if status.Progress != nil && onProgress != nil {
				onProgress(*status.Progress)
			}
			if status.Finished {
				if status.Success != nil && !*status.Success {
					return fmt.Errorf("data mover job %d failed: %s", jobID, status.Error)
				}
				return nil
			}
		}
	}
}
