package keepalive

import (
	"context"
	"net/http"
	"time"

	"github.com/onsekiz/backend/internal/logger"
	"go.uber.org/zap"
)

// Pinger periodically GETs the service's own health endpoint so free-tier
// hosts do not idle the process out.
type Pinger struct {
	url      string
	interval time.Duration
	client   *http.Client
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewPinger creates a keep-alive pinger for the given URL
func NewPinger(url string, interval time.Duration) *Pinger {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pinger{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the periodic self ping
func (p *Pinger) Start() {
	logger.Log.Info("Starting keep-alive pinger",
		zap.String("url", p.url),
		zap.Duration("interval", p.interval),
	)
	go p.run()
}

// Stop stops the pinger
func (p *Pinger) Stop() {
	p.cancel()
}

func (p *Pinger) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.ping()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pinger) ping() {
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, p.url, nil)
	if err != nil {
		logger.WarnWithFields("keep-alive request build failed", err)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		logger.WarnWithFields("keep-alive ping failed", err)
		return
	}
	resp.Body.Close()

	logger.Log.Debug("keep-alive ping", zap.Int("status", resp.StatusCode))
}
