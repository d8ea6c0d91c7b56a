package simulator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Pusher periodically reports simulated sensor readings to the backend's
// device ingest endpoint, authenticating with the shared device key.
type Pusher struct {
	state        *State
	client       *http.Client
	backendURL   string
	deviceKey    string
	tenantID     int64
	greenhouseID int64
	interval     time.Duration
	logger       *zap.Logger
}

func NewPusher(state *State, backendURL, deviceKey string, tenantID, greenhouseID int64, interval time.Duration, logger *zap.Logger) *Pusher {
	return &Pusher{
		state:        state,
		client:       &http.Client{Timeout: 10 * time.Second},
		backendURL:   backendURL,
		deviceKey:    deviceKey,
		tenantID:     tenantID,
		greenhouseID: greenhouseID,
		interval:     interval,
		logger:       logger,
	}
}

// Run pushes a reading every interval until the context is cancelled.
func (p *Pusher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.pushOnce(ctx); err != nil {
				p.logger.Warn("Failed to push sensor reading", zap.Error(err))
			}
		}
	}
}

func (p *Pusher) pushOnce(ctx context.Context) error {
	temperature := p.state.RandomReading()
	humidity := p.state.RandomReading()

	endpoint := fmt.Sprintf("%s/arduino/tenant/%d/greenhouse/%d/push/%d/%d?key=%s",
		p.backendURL, p.tenantID, p.greenhouseID, temperature, humidity, url.QueryEscape(p.deviceKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push reading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend rejected reading: %s", resp.Status)
	}

	p.logger.Debug("Sensor reading pushed",
		zap.Int("temperature", temperature),
		zap.Int("humidity", humidity))
	return nil
}
