package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
	"github.com/1trippycat/vaultrunner/internal/utils"
)

const (
	// mountPath is the KV secrets engine mount the client operates under.
	mountPath = "secret"

	tokenHeader    = "X-Vault-Token"
	requestTimeout = 30 * time.Second

	// readRetryMax bounds automatic retries for idempotent reads. Mutations
	// are never retried here; retry policy for those belongs to the caller.
	readRetryMax = 2
)

// Client is a namespace-scoped proxy to the remote secret store. It holds no
// persistent state, only the transient decrypted credential for the duration
// of one process.
type Client struct {
	addr  string
	token string

	// read retries transient failures with backoff; write never retries.
	read  *retryablehttp.Client
	write *http.Client
}

// NewClient returns a client for the store at addr, authenticating every
// request with the given root credential.
func NewClient(addr, token string) (*Client, error) {
	if err := utils.ValidateStoreAddress(addr); err != nil {
		return nil, err
	}

	read := retryablehttp.NewClient()
	read.RetryMax = readRetryMax
	read.RetryWaitMin = 250 * time.Millisecond
	read.RetryWaitMax = 2 * time.Second
	read.HTTPClient = cleanhttp.DefaultPooledClient()
	read.HTTPClient.Timeout = requestTimeout
	read.Logger = nil

	write := cleanhttp.DefaultPooledClient()
	write.Timeout = requestTimeout

	return &Client{
		addr:  strings.TrimRight(addr, "/"),
		token: token,
		read:  read,
		write: write,
	}, nil
}

// apiError is the store's error response shape.
type apiError struct {
	Errors []string `json:"errors"`
}

// dataURL returns the data endpoint for a logical path.
func (c *Client) dataURL(namespace, path string) string {
	return c.addr + "/v1/" + mountPath + "/data/" + namespace + "/" + escapePath(path)
}

// metadataURL returns the metadata endpoint for a logical path prefix.
func (c *Client) metadataURL(prefix string) string {
	u := c.addr + "/v1/" + mountPath + "/metadata"
	if prefix != "" {
		u += "/" + escapePath(prefix)
	}
	return u
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// Put writes value at (namespace, path), overwriting any existing value.
func (c *Client) Put(ctx context.Context, namespace, path, value string) error {
	if err := utils.ValidateNamespace(namespace); err != nil {
		return err
	}
	if err := utils.ValidateSecretPath(path); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"data": map[string]string{"value": value},
	})
	if err != nil {
		return fmt.Errorf("encoding secret payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.dataURL(namespace, path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(tokenHeader, c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.write.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", vrerrors.ErrStoreUnreachable, err)
	}
	defer drain(resp)

	return c.checkStatus(resp, namespace, path)
}

// Get returns the value stored at (namespace, path).
// Returns ErrSecretNotFound if absent.
func (c *Client) Get(ctx context.Context, namespace, path string) (string, error) {
	if err := utils.ValidateNamespace(namespace); err != nil {
		return "", err
	}
	if err := utils.ValidateSecretPath(path); err != nil {
		return "", err
	}

	resp, err := c.doRead(ctx, c.dataURL(namespace, path))
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s/%s", vrerrors.ErrSecretNotFound, namespace, path)
	}
	if err := c.checkStatus(resp, namespace, path); err != nil {
		return "", err
	}

	var parsed struct {
		Data struct {
			Data map[string]string `json:"data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding secret response: %w", err)
	}

	value, ok := parsed.Data.Data["value"]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s has no value field", vrerrors.ErrSecretNotFound, namespace, path)
	}
	return value, nil
}

// List returns every secret path under the namespace, optionally filtered by
// prefix, sorted lexicographically. The walk recurses through folder entries
// (keys ending in "/"). Callers may re-list freely: no cursor state is kept.
func (c *Client) List(ctx context.Context, namespace, prefix string) ([]string, error) {
	if err := utils.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if prefix != "" {
		if err := utils.ValidateSecretPath(prefix); err != nil {
			return nil, err
		}
	}

	root := namespace
	if prefix != "" {
		root = namespace + "/" + prefix
	}

	var paths []string
	if err := c.walk(ctx, root, "", &paths); err != nil {
		return nil, err
	}

	// Make listed paths relative to the namespace, not the prefix root.
	if prefix != "" {
		for i, p := range paths {
			paths[i] = prefix + "/" + p
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// walk recursively collects secret paths under root, accumulating the
// relative path in rel.
func (c *Client) walk(ctx context.Context, root, rel string, out *[]string) error {
	full := root
	if rel != "" {
		full = root + "/" + rel
	}

	keys, err := c.listKeys(ctx, full)
	if err != nil {
		return err
	}

	for _, key := range keys {
		child := strings.TrimSuffix(key, "/")
		if rel != "" {
			child = rel + "/" + child
		}
		if strings.HasSuffix(key, "/") {
			if err := c.walk(ctx, root, child, out); err != nil {
				return err
			}
		} else {
			*out = append(*out, child)
		}
	}
	return nil
}

// listKeys performs one non-recursive list call. A 404 means the prefix has
// no children, which is not an error.
func (c *Client) listKeys(ctx context.Context, prefix string) ([]string, error) {
	resp, err := c.doRead(ctx, c.metadataURL(prefix)+"?list=true")
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := c.checkStatus(resp, prefix, ""); err != nil {
		return nil, err
	}

	var parsed struct {
		Data struct {
			Keys []string `json:"keys"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding list response: %w", err)
	}
	return parsed.Data.Keys, nil
}

// Delete removes the secret at (namespace, path). Deleting an already-absent
// path is not an error.
func (c *Client) Delete(ctx context.Context, namespace, path string) error {
	if err := utils.ValidateNamespace(namespace); err != nil {
		return err
	}
	if err := utils.ValidateSecretPath(path); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.metadataURL(namespace+"/"+path), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.write.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", vrerrors.ErrStoreUnreachable, err)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return c.checkStatus(resp, namespace, path)
}

// ListNamespaces returns the namespace names visible to the credential,
// derived from the top-level path segments, sorted.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	keys, err := c.listKeys(ctx, "")
	if err != nil {
		return nil, err
	}

	namespaces := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, "/") {
			namespaces = append(namespaces, strings.TrimSuffix(key, "/"))
		}
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// doRead issues a GET through the retrying client. Only reads go through
// this path; they are idempotent, so a bounded retry with backoff is safe.
func (c *Client) doRead(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.read.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vrerrors.ErrStoreUnreachable, err)
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to the error taxonomy. Error messages
// may name a path or namespace but never a value.
func (c *Client) checkStatus(resp *http.Response, namespace, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	location := namespace
	if path != "" {
		location = namespace + "/" + path
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", vrerrors.ErrAuthentication, location)
	default:
		var apiErr apiError
		detail := ""
		if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
			if json.Unmarshal(body, &apiErr) == nil && len(apiErr.Errors) > 0 {
				detail = ": " + strings.Join(apiErr.Errors, "; ")
			}
		}
		return fmt.Errorf("store returned %d for %s%s", resp.StatusCode, location, detail)
	}
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
