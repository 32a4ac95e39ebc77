package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultClient 没有全局超时, 每个调用方通过 context 设置自己的超时
var DefaultClient = &http.Client{}

// RequestOption 定义请求选项函数
type RequestOption func(*http.Request)

// WithHeader 添加自定义 Header
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// ErrDecode marks a response body that is not the JSON the caller expected.
var ErrDecode = errors.New("invalid json body")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http request failed: status %d", e.Code)
}

// Get 发送 HTTP GET 请求, timeout <= 0 时只受 ctx 约束
func Get(ctx context.Context, client *http.Client, url string, timeout time.Duration, opts ...RequestOption) ([]byte, error) {
	if client == nil {
		client = DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	// 应用额外选项
	for _, opt := range opts {
		opt(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

// GetJSON 发送 GET 请求并把响应体解码到 v
func GetJSON(ctx context.Context, client *http.Client, url string, timeout time.Duration, v any, opts ...RequestOption) error {
	body, err := Get(ctx, client, url, timeout, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, url, err)
	}
	return nil
}
