package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/transport"
)

const maxSendRetries = 2

// ToggleCount is the yes/no tally for one toggle within a bucket.
type ToggleCount struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// Bucket is one reporting window.
type Bucket struct {
	Start   time.Time               `json:"start"`
	Stop    time.Time               `json:"stop"`
	Toggles map[string]*ToggleCount `json:"toggles"`
}

type payload struct {
	AppName    string `json:"appName"`
	InstanceID string `json:"instanceId"`
	Bucket     Bucket `json:"bucket"`
}

// ReporterConfig wires a Reporter to the same endpoint and credentials the
// client fetches toggles from.
type ReporterConfig struct {
	URL           string
	ClientKey     string
	AuthHeader    string
	CustomHeaders map[string]string
	AppName       string
	InstanceID    string
	Interval      time.Duration
	Transport     transport.Doer
	Logger        *log.Logger
}

// Reporter aggregates evaluation counts into a bucket and posts the bucket
// to <url>/client/metrics on a fixed interval. Empty buckets are skipped.
type Reporter struct {
	cfg    ReporterConfig
	logger *log.Entry

	mu      sync.Mutex
	bucket  Bucket
	started bool
	stop    chan struct{}
}

func NewReporter(cfg ReporterConfig) *Reporter {
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Reporter{
		cfg:    cfg,
		logger: logger.WithField("component", "metrics"),
		bucket: newBucket(),
	}
}

func newBucket() Bucket {
	return Bucket{Start: time.Now(), Toggles: map[string]*ToggleCount{}}
}

func (r *Reporter) Count(toggleName string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.bucket.Toggles[toggleName]
	if !ok {
		c = &ToggleCount{}
		r.bucket.Toggles[toggleName] = c
	}
	if enabled {
		c.Yes++
	} else {
		c.No++
	}
}

func (r *Reporter) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.stop = make(chan struct{})
	stop := r.stop
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.send()
			case <-stop:
				return
			}
		}
	}()
}

func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.started = false
	close(r.stop)
}

// swapBucket returns the current bucket closed at now and installs a fresh
// one, so counts recorded during the upload land in the next window.
func (r *Reporter) swapBucket() Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bucket
	b.Stop = time.Now()
	r.bucket = newBucket()
	return b
}

func (r *Reporter) send() {
	b := r.swapBucket()
	if len(b.Toggles) == 0 {
		return
	}

	body, err := json.Marshal(payload{
		AppName:    r.cfg.AppName,
		InstanceID: r.cfg.InstanceID,
		Bucket:     b,
	})
	if err != nil {
		r.logger.Errorf("unable to marshal metrics bucket: %v", err)
		return
	}

	operation := func() error {
		req, err := http.NewRequest(http.MethodPost, r.cfg.URL+"/client/metrics", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set(r.cfg.AuthHeader, r.cfg.ClientKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		for k, v := range r.cfg.CustomHeaders {
			req.Header.Set(k, v)
		}
		resp, err := r.cfg.Transport.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("metrics endpoint returned status %d", resp.StatusCode)
		}
		return nil
	}

	err = backoff.Retry(operation, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxSendRetries))
	if err != nil {
		// the bucket is dropped, counts are best-effort
		r.logger.Errorf("unable to upload metrics bucket: %v", err)
	}
}
