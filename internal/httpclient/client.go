// Package httpclient implements C1: building a shared HTTP client from an
// ExecConfig and executing individual wire requests while measuring latency.
package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/model"
	"github.com/forgewave/bombard/internal/tlsconfig"
)

const userAgent = "bombard/1.0"

// Client wraps a *http.Client configured per ExecConfig: TLS trust/identity,
// optional cookie jar, and a default per-request timeout. It is shared by
// all workers and is safe for concurrent use, as stdlib's http.Client is.
type Client struct {
	http             *http.Client
	defaultTimeout   time.Duration
}

// Build configures user-agent, optional cookie jar, and TLS trust/identity
// from cfg. Construction failures are ConfigInvalid (fatal at startup).
func Build(cfg model.ExecConfig, log *zap.Logger) (*Client, error) {
	tlsCfg, err := tlsconfig.Build(cfg.TLS, log)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		TLSClientConfig:     tlsCfg,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.DefaultTimeout(),
	}

	if cfg.HandleCookies {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: building cookie jar: %v", model.ErrConfigInvalid, err)
		}
		httpClient.Jar = jar
	}

	return &Client{http: httpClient, defaultTimeout: cfg.DefaultTimeout()}, nil
}

// Result is the outcome of executing one wire request.
type Result struct {
	Response  *http.Response
	LatencyMS uint32
}

// Execute sends req and measures latency as the wall-clock interval from
// just before send to response-headers received. The caller is responsible
// for closing Result.Response.Body when it is non-nil.
func (c *Client) Execute(req *http.Request, timeoutMS int) (Result, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	client := c.http
	if timeoutMS > 0 {
		clone := *c.http
		clone.Timeout = time.Duration(timeoutMS) * time.Millisecond
		client = &clone
	}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)

	if err != nil {
		if errors.Is(err, http.ErrHandlerTimeout) {
			return Result{}, fmt.Errorf("%w: %v", model.ErrTransport, err)
		}
		return Result{}, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}

	return Result{Response: resp, LatencyMS: uint32(latency.Milliseconds())}, nil
}
