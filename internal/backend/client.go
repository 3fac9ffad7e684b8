// Package backend is the console's HTTP client for the admin backend. The
// backend owns all data; the console only reads pages and JSON endpoints
// and posts forms.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wlconsole/wlconsole/internal/form"
	"github.com/wlconsole/wlconsole/internal/router"
)

const (
	maxResponseSize = 8 << 20 // 8 MB
	defaultTimeout  = 10 * time.Second

	// loginPath is where the backend sends requests without a valid session.
	loginPath = "/auth/login"
)

var (
	// ErrStatus is wrapped by errors for non-2xx responses.
	ErrStatus = errors.New("unexpected response status")
	// ErrUnauthenticated is returned when the backend redirects to its login
	// page, e.g. after the session cookie expired.
	ErrUnauthenticated = errors.New("backend session is not authenticated")
	// ErrUnexpectedRedirect is returned when a form submission lands on a
	// page outside the screen it was posted from.
	ErrUnexpectedRedirect = errors.New("unexpected redirect")
)

// Envelope is the JSON result of an intercepted form submission.
type Envelope struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Stats is the system metrics payload.
type Stats struct {
	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float64 `json:"ram_percent"`
	// Bandwidth is the display text reported by the backend, e.g. "1.25 Mbps".
	Bandwidth string `json:"bandwidth"`
	// BandwidthMbps is the numeric part of Bandwidth.
	BandwidthMbps float64 `json:"bandwidth_mbps"`
}

// Client talks to the admin backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookie     string
	table      *router.Table
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionCookie sends the given Cookie header on every request.
func WithSessionCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a backend client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		table:      router.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, text/html")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w %d", method, path, ErrStatus, resp.StatusCode)
	}
	if landed := finalPath(resp); landed != "" && path != loginPath && strings.HasSuffix(landed, loginPath) {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthenticated)
	}
	return resp, nil
}

// finalPath returns the path of the last request made for resp, after any
// redirects were followed.
func finalPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.Path
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// FetchPage returns the body of a rendered backend page.
func (c *Client) FetchPage(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchTemplates returns the template groups. On failure the map is empty,
// never nil.
func (c *Client) FetchTemplates(ctx context.Context) (map[string][]string, error) {
	groups := map[string][]string{}
	if err := c.getJSON(ctx, router.TemplatesAPI, nil, &groups); err != nil {
		return map[string][]string{}, err
	}
	return groups, nil
}

// Lookup resolves ip to a hostname through the backend. An absent hostname
// returns "" without error.
func (c *Client) Lookup(ctx context.Context, ip string) (string, error) {
	var res struct {
		Hostname *string `json:"hostname"`
	}
	if err := c.getJSON(ctx, router.NSLookupAPI, url.Values{"ip": {ip}}, &res); err != nil {
		return "", err
	}
	if res.Hostname == nil {
		return "", nil
	}
	return strings.TrimSpace(*res.Hostname), nil
}

// SystemStats fetches the current system metrics.
func (c *Client) SystemStats(ctx context.Context) (Stats, error) {
	var raw struct {
		CPUPercent float64         `json:"cpu_percent"`
		RAMPercent float64         `json:"ram_percent"`
		Bandwidth  json.RawMessage `json:"bandwidth"`
	}
	if err := c.getJSON(ctx, router.SystemStatsAPI, nil, &raw); err != nil {
		return Stats{}, err
	}
	text, mbps := parseBandwidth(raw.Bandwidth)
	return Stats{
		CPUPercent:    raw.CPUPercent,
		RAMPercent:    raw.RAMPercent,
		Bandwidth:     text,
		BandwidthMbps: mbps,
	}, nil
}

// parseBandwidth accepts a JSON number or a string such as "12.34 Mbps".
func parseBandwidth(raw json.RawMessage) (string, float64) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', 2, 64) + " Mbps", n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", 0
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s, 0
	}
	n, _ = strconv.ParseFloat(fields[0], 64)
	return s, n
}

// Submit posts a form submission and decodes the JSON envelope.
func (c *Client) Submit(ctx context.Context, sub form.Submission) (Envelope, error) {
	var (
		body        io.Reader
		query       url.Values
		contentType string
	)
	if sub.Method == http.MethodGet {
		query = sub.Values
	} else {
		body = strings.NewReader(sub.Values.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	resp, err := c.do(ctx, sub.Method, sub.Path, query, body, contentType)
	if err != nil {
		return Envelope{}, err
	}
	defer resp.Body.Close()

	// A redirect back to the submitting screen means the form was accepted;
	// that page carries no envelope.
	if landed := finalPath(resp); landed != "" && !strings.HasSuffix(landed, sub.Path) && !isJSON(resp) {
		if !sameScreen(strings.TrimPrefix(landed, c.baseURL.Path), sub.Path) {
			return Envelope{}, fmt.Errorf("%s %s: %w to %s", sub.Method, sub.Path, ErrUnexpectedRedirect, landed)
		}
		return Envelope{Message: "Request completed", Type: "success"}, nil
	}
	return decodeEnvelope(resp.Body, sub.Path)
}

// sameScreen reports whether two backend paths share their first segment,
// e.g. /clients/delete/3 and /clients.
func sameScreen(a, b string) bool {
	return screenOf(a) != "" && screenOf(a) == screenOf(b)
}

func screenOf(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return seg
}

func isJSON(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "json")
}

func decodeEnvelope(r io.Reader, path string) (Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(io.LimitReader(r, maxResponseSize)).Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("decoding response of %s: %w", path, err)
	}
	if env.Type == "" {
		env.Type = "success"
	}
	return env, nil
}

// Import uploads a file to the import endpoint of resource r. With
// overwrite set, existing entries with the same key are replaced instead of
// skipped.
func (c *Client) Import(ctx context.Context, r router.Resource, filename string, content io.Reader, overwrite bool) (Envelope, error) {
	ep, err := c.table.Resolve(r, router.Import, "")
	if err != nil {
		return Envelope{}, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Envelope{}, fmt.Errorf("creating upload part: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(content, maxResponseSize)); err != nil {
		return Envelope{}, fmt.Errorf("reading upload: %w", err)
	}
	if overwrite {
		if err := mw.WriteField("overwrite", "on"); err != nil {
			return Envelope{}, fmt.Errorf("writing overwrite flag: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Envelope{}, fmt.Errorf("finishing upload: %w", err)
	}

	resp, err := c.do(ctx, ep.Method, ep.Path, nil, &buf, mw.FormDataContentType())
	if err != nil {
		return Envelope{}, err
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp.Body, ep.Path)
}

// Export opens the export download of resource r. The caller closes the body.
func (c *Client) Export(ctx context.Context, r router.Resource) (io.ReadCloser, string, error) {
	ep, err := c.table.Resolve(r, router.Export, "")
	if err != nil {
		return nil, "", err
	}
	resp, err := c.do(ctx, ep.Method, ep.Path, nil, nil, "")
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
