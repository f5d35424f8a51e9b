package network

import (
	"context"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// Response is one HTTP observation: status code plus raw body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Prober issues single network observations. Implementations never
// retry; bounded timeouts keep each call's latency predictable.
type Prober interface {
	Ping(ctx context.Context, address string, timeout time.Duration) bool
	HTTPGet(ctx context.Context, url string, timeout time.Duration) (*Response, error)
}

// pingPacketCount matches the two-packet probe the platform scripts use;
// the success marker below only appears when both packets came back.
const pingPacketCount = "2"

const pingSuccessMarker = "0% packet loss"

type execProber struct {
	client *http.Client
}

// NewProber returns a Prober backed by the system ping binary and a
// plain HTTP client.
func NewProber() Prober {
	return &execProber{
		client: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
		},
	}
}

func (p *execProber) Ping(ctx context.Context, address string, timeout time.Duration) bool {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, "ping", address, "-c", pingPacketCount)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), pingSuccessMarker)
}

func (p *execProber) HTTPGet(ctx context.Context, url string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{StatusCode: resp.StatusCode}, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
