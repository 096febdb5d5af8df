package jupyter

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultPort is Jupyter's default listening port.
const DefaultPort = 8888

// Probe checks whether a Jupyter server answers on a local port.
type Probe struct {
	Client *http.Client
	Host   string
}

// NewProbe returns a probe with a one-second timeout.
func NewProbe() *Probe {
	return &Probe{
		Client: &http.Client{Timeout: time.Second},
		Host:   "127.0.0.1",
	}
}

// IsRunning reports whether GET /api on port answers 200.
func (p *Probe) IsRunning(ctx context.Context, port int) bool {
	return p.get(ctx, fmt.Sprintf("http://%s:%d/api", p.Host, port))
}

func (p *Probe) get(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
