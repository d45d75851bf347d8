// Package proxy forwards browser calls under a local prefix to CM360 so the
// dashboard stays same-origin.
package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// droppedHeaders never cross the proxy in either direction.
var droppedHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
	"Host",
	"Content-Length",
	"Accept-Encoding",
	"Content-Encoding",
}

func stripHeaders(h http.Header) {
	for _, name := range droppedHeaders {
		h.Del(name)
	}
}

// Proxy relays requests to a fixed upstream. Status and body pass through
// untouched and redirects are returned to the caller, never followed.
type Proxy struct {
	prefix   string
	upstream *url.URL
	rp       *httputil.ReverseProxy
	logger   *zap.Logger
	metrics  observability.MetricsRegistry
}

// New creates a proxy that strips prefix and forwards to upstream. A nil
// transport gets a traced default.
func New(upstream, prefix string, transport http.RoundTripper, logger *zap.Logger, metrics observability.MetricsRegistry) (*Proxy, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream %q must be an absolute URL", upstream)
	}
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}

	p := &Proxy{
		prefix:   "/" + strings.Trim(prefix, "/"),
		upstream: target,
		logger:   logger,
		metrics:  metrics,
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		Transport:      transport,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
		// flush as soon as upstream writes
		FlushInterval: -1,
	}
	return p, nil
}

// Prefix is the local path prefix the proxy is mounted on.
func (p *Proxy) Prefix() string { return p.prefix }

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != p.prefix && !strings.HasPrefix(r.URL.Path, p.prefix+"/") {
		writeError(w, http.StatusNotFound, "path is outside the proxy prefix")
		p.metrics.IncrementProxyRequests(strconv.Itoa(http.StatusNotFound))
		return
	}
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	out := pr.Out
	out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, p.prefix)
	if pr.In.URL.RawPath != "" {
		out.URL.RawPath = strings.TrimPrefix(pr.In.URL.RawPath, p.prefix)
	}
	pr.SetURL(p.upstream)
	// SetURL joins queries; keep the caller's query exactly
	out.URL.RawQuery = pr.In.URL.RawQuery
	stripHeaders(out.Header)
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	stripHeaders(resp.Header)
	p.metrics.IncrementProxyRequests(strconv.Itoa(resp.StatusCode))
	return nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Warn("proxy upstream failure",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	p.metrics.IncrementProxyUpstreamErrors()
	p.metrics.IncrementProxyRequests(strconv.Itoa(http.StatusBadGateway))
	writeError(w, http.StatusBadGateway, err.Error())
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var body errorBody
	body.Error.Message = msg
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
