// Package client implements the downloading side: listing a remote share,
// resumable single-file transfers, parallel batch transfers and whole-tree
// archive transfers.
package client

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/internal/domain"
	"github.com/lanshare/lanshare/internal/logger"
)

const userAgent = "LANShare/2.0"

// Health is the advisory record kept per endpoint. It never gates a
// transfer; it only informs the UI which servers looked alive recently.
type Health struct {
	LastSeen   time.Time
	FileCount  int
	Responsive bool
	Age        time.Duration
}

// Client talks to one or more share servers. Safe for concurrent use; each
// transfer keeps its own state on the goroutine running it.
type Client struct {
	httpClient *http.Client
	cfg        config.TransferConfig
	log        *logger.Logger
	recorder   domain.AttemptRecorder

	mu     sync.Mutex
	health map[string]*Health
}

func New(cfg config.TransferConfig, log *logger.Logger, recorder domain.AttemptRecorder) *Client {
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        cfg.MaxWorkers * 2,
				MaxIdleConnsPerHost: cfg.MaxWorkers,
				// Compression is negotiated and decoded by hand so a bad
				// gzip body can fall back to plain parsing.
				DisableCompression: true,
			},
		},
		cfg:      cfg,
		log:      log,
		recorder: recorder,
		health:   make(map[string]*Health),
	}
}

func (c *Client) urlFor(endpoint, path string) string {
	return fmt.Sprintf("http://%s%s", endpoint, path)
}

// EndpointHealth returns the advisory record for endpoint, stamped with its age.
func (c *Client) EndpointHealth(endpoint string) (Health, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.health[endpoint]
	if !ok {
		return Health{}, false
	}

	out := *h
	out.Age = time.Since(h.LastSeen)
	return out, true
}

func (c *Client) ClearHealth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health = make(map[string]*Health)
}

func (c *Client) markSeen(endpoint string, fileCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health[endpoint] = &Health{
		LastSeen:   time.Now(),
		FileCount:  fileCount,
		Responsive: true,
	}
}

func (c *Client) markUnresponsive(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.health[endpoint]; ok {
		h.Responsive = false
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
