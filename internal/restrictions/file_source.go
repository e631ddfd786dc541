package restrictions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk shape:
//
//	orgs:
//	  acme:
//	    rules:
//	      - company: "Initech"
//	        effect: block
//	        reason: "active client, no cold outreach"
type policyFile struct {
	Orgs map[string]struct {
		Rules []Rule `yaml:"rules"`
	} `yaml:"orgs"`
}

// FileSource serves restriction rules from a YAML file and reloads it when
// the file changes. Useful for small deployments without a policy database.
type FileSource struct {
	path string

	mu    sync.RWMutex
	byOrg map[string][]Rule
}

func NewFileSource(path string) (*FileSource, error) {
	s := &FileSource{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSource) Rules(_ context.Context, orgID string) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := s.byOrg[orgID]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out, nil
}

func (s *FileSource) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("restrictions: read policy file: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return fmt.Errorf("restrictions: parse policy file %s: %w", s.path, err)
	}
	byOrg := make(map[string][]Rule, len(pf.Orgs))
	for org, section := range pf.Orgs {
		byOrg[org] = section.Rules
	}
	s.mu.Lock()
	s.byOrg = byOrg
	s.mu.Unlock()
	slog.Info("restriction policy loaded", "file", s.path, "orgs", len(byOrg))
	return nil
}

// Watch reloads the policy file on change until ctx is cancelled. A failed
// reload keeps the last good rule set.
func (s *FileSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors replace files instead of rewriting them.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.load(); err != nil {
					slog.Warn("restriction policy reload failed, keeping previous rules", "error", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("restriction policy watcher error", "error", err)
			}
		}
	}()
	return nil
}
