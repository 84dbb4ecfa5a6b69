package httpx

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout             = 30 * time.Second
	DefaultMaxConnsPerHost     = 128
	DefaultMaxIdleConnDuration = 10 * time.Second
	DefaultMaxResponseBodySize = 10 * 1024 * 1024
)

// FastHTTPClientConfig configures the fasthttp-backed Client.
type FastHTTPClientConfig struct {
	Timeout             time.Duration
	InsecureSkipVerify  bool
	MaxConnsPerHost     int
	MaxResponseBodySize int
	UserAgent           string
}

type FastHTTPClient struct {
	client    *fasthttp.Client
	userAgent string
}

// NewFastHTTPClient creates a fasthttp-backed Client. Zero config fields get
// the package defaults.
func NewFastHTTPClient(cfg FastHTTPClientConfig) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = DefaultMaxConnsPerHost
	}
	if cfg.MaxResponseBodySize <= 0 {
		cfg.MaxResponseBodySize = DefaultMaxResponseBodySize
	}

	client := &fasthttp.Client{
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		MaxIdleConnDuration: DefaultMaxIdleConnDuration,
		MaxResponseBodySize: cfg.MaxResponseBodySize,
		ReadTimeout:         cfg.Timeout,
		WriteTimeout:        cfg.Timeout,
	}
	if cfg.InsecureSkipVerify {
		client.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // intentionally configurable
		}
	}

	return &FastHTTPClient{
		client:    client,
		userAgent: cfg.UserAgent,
	}
}

func (c *FastHTTPClient) Do(req *http.Request) (*http.Response, error) {
	fastReq := fasthttp.AcquireRequest()
	fastResp := fasthttp.AcquireResponse()

	if req.URL != nil {
		fastReq.SetRequestURI(req.URL.String())
	}
	fastReq.Header.SetMethod(req.Method)

	for key, values := range req.Header {
		for _, value := range values {
			fastReq.Header.Add(key, value)
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		fastReq.Header.Set("User-Agent", c.userAgent)
	}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		fastReq.SetBodyRaw(body)
		_ = req.Body.Close()
	}

	transferDone := make(chan error, 1)
	go func() {
		transferDone <- c.client.Do(fastReq, fastResp)
	}()

	select {
	case err := <-transferDone:
		fasthttp.ReleaseRequest(fastReq)
		if err != nil {
			fasthttp.ReleaseResponse(fastResp)
			return nil, err
		}
	case <-req.Context().Done():
		// The transfer goroutine still owns both objects; return them to
		// the pool once Do finishes.
		go func() {
			<-transferDone
			fasthttp.ReleaseRequest(fastReq)
			fasthttp.ReleaseResponse(fastResp)
		}()
		return nil, req.Context().Err()
	}

	decoded, _, err := DecodeChain(fastResp, fastResp.Body())
	if err != nil {
		fasthttp.ReleaseResponse(fastResp)
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	bodyCopy := make([]byte, len(decoded))
	copy(bodyCopy, decoded)

	statusCode := fastResp.StatusCode()
	headers := make(http.Header)
	fastResp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	resp := &http.Response{
		Status:        fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		StatusCode:    statusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(bodyCopy)),
		ContentLength: int64(len(bodyCopy)),
		Request:       req,
	}

	fasthttp.ReleaseResponse(fastResp)
	return resp, nil
}
