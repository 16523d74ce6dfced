package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter(url string) *Reporter {
	return NewReporter(ReporterConfig{
		URL:        url,
		ClientKey:  "secret",
		AuthHeader: "Authorization",
		AppName:    "webapp",
		InstanceID: "instance-1",
		Interval:   time.Minute,
		Transport:  http.DefaultClient,
	})
}

func TestCountAggregates(t *testing.T) {
	r := newTestReporter("http://localhost")

	r.Count("flagA", true)
	r.Count("flagA", true)
	r.Count("flagA", false)
	r.Count("flagB", false)

	b := r.swapBucket()
	require.Contains(t, b.Toggles, "flagA")
	assert.Equal(t, 2, b.Toggles["flagA"].Yes)
	assert.Equal(t, 1, b.Toggles["flagA"].No)
	assert.Equal(t, 1, b.Toggles["flagB"].No)
	assert.False(t, b.Stop.IsZero())
}

func TestSwapBucketResetsWindow(t *testing.T) {
	r := newTestReporter("http://localhost")
	r.Count("flagA", true)

	r.swapBucket()
	b := r.swapBucket()

	assert.Empty(t, b.Toggles)
}

func TestSendPostsBucket(t *testing.T) {
	var got payload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/client/metrics", req.URL.Path)
		auth = req.Header.Get("Authorization")
		body, _ := io.ReadAll(req.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	r := newTestReporter(server.URL)
	r.Count("flagA", true)
	r.send()

	assert.Equal(t, "secret", auth)
	assert.Equal(t, "webapp", got.AppName)
	assert.Equal(t, "instance-1", got.InstanceID)
	assert.Equal(t, 1, got.Bucket.Toggles["flagA"].Yes)
}

func TestSendSkipsEmptyBucket(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer server.Close()

	r := newTestReporter(server.URL)
	r.send()

	assert.Zero(t, calls)
}

func TestStartStopIdempotent(t *testing.T) {
	r := newTestReporter("http://localhost")

	r.Start()
	r.Start()
	r.Stop()
	assert.NotPanics(t, r.Stop)
}
