// Package bootstrap loads toggle definitions from a local JSON file. The
// resulting toggle set can seed a client before its first network fetch, or
// back the sidecar's offline mode, in which case the file is watched and
// re-read on change.
package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
)

// Provider reads and validates a toggle definition file.
type Provider struct {
	Path   string
	Logger *log.Logger

	mu      sync.RWMutex
	toggles []model.Toggle
}

func NewProvider(path string, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Provider{Path: path, Logger: logger}
}

// Load parses the file, validates it against the toggle-set schema and
// stores the result. It must succeed once before Toggles is useful.
func (p *Provider) Load() ([]model.Toggle, error) {
	toggles, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.toggles = toggles
	p.mu.Unlock()
	return model.CopyToggles(toggles), nil
}

func (p *Provider) parse() ([]model.Toggle, error) {
	if p.Path == "" {
		return nil, errors.New("no bootstrap file path set")
	}
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to read bootstrap file: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(toggleSetSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("unable to validate bootstrap file: %w", err)
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			p.Logger.Errorf("bootstrap file %s: %s", p.Path, desc)
		}
		return nil, fmt.Errorf("bootstrap file %s does not match the toggle schema", p.Path)
	}

	var set model.ToggleSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("unable to parse bootstrap file: %w", err)
	}
	return set.Toggles, nil
}

// GetAllToggles returns a copy of the most recently loaded toggle set. It
// implements the sidecar's ToggleSource in offline mode.
func (p *Provider) GetAllToggles() []model.Toggle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return model.CopyToggles(p.toggles)
}

// Watch re-reads the file on every write event until ctx is cancelled,
// invoking onUpdate with each successfully parsed toggle set. Parse and
// validation failures are logged and the previous toggle set is kept.
func (p *Provider) Watch(ctx context.Context, onUpdate func([]model.Toggle)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	if err := watcher.Add(p.Path); err != nil {
		watcher.Close()
		return fmt.Errorf("unable to watch %s: %w", p.Path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write != fsnotify.Write {
					continue
				}
				toggles, err := p.Load()
				if err != nil {
					// editors occasionally fire a write event mid-save
					p.Logger.Errorf("bootstrap reload failed: %v", err)
					continue
				}
				p.Logger.Infof("bootstrap file %s reloaded, %d toggles", p.Path, len(toggles))
				if onUpdate != nil {
					onUpdate(toggles)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.Logger.Errorf("bootstrap watch error: %v", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
