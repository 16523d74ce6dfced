package service

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
)

type staticSource []model.Toggle

func (s staticSource) GetAllToggles() []model.Toggle {
	return model.CopyToggles(s)
}

func newTestService(toggles []model.Toggle) *ProxyService {
	p := &ProxyService{
		ProxyServiceConfiguration: &ProxyServiceConfiguration{Port: 0},
		Source:                    staticSource(toggles),
		Logger:                    log.StandardLogger(),
	}
	p.initMetrics()
	return p
}

func TestProxyServesSnapshot(t *testing.T) {
	p := newTestService([]model.Toggle{
		{Name: "flagA", Enabled: true},
		{Name: "flagB", Enabled: false},
	})

	rec := httptest.NewRecorder()
	p.handleProxy(rec, httptest.NewRequest("GET", "/proxy", nil))

	require.Equal(t, 200, rec.Code)
	var set model.ToggleSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Toggles, 2)
	assert.Equal(t, "flagA", set.Toggles[0].Name)
}

func TestProxyFiltersByName(t *testing.T) {
	p := newTestService([]model.Toggle{
		{Name: "flagA", Enabled: true},
		{Name: "flagB", Enabled: false},
		{Name: "flagC", Enabled: true},
	})

	rec := httptest.NewRecorder()
	p.handleProxy(rec, httptest.NewRequest("GET", "/proxy?toggles=flagA,flagC", nil))

	var set model.ToggleSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Toggles, 2)
	assert.Equal(t, "flagA", set.Toggles[0].Name)
	assert.Equal(t, "flagC", set.Toggles[1].Name)
}

func TestHealthEndpoint(t *testing.T) {
	p := newTestService(nil)

	rec := httptest.NewRecorder()
	p.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeRequiresConfiguration(t *testing.T) {
	p := &ProxyService{}
	err := p.Serve(context.Background())
	assert.Error(t, err)
}
