package script

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// Step is one unit of a bank instruction script. Text and Images are
// independently optional; Age, when set on any step, declares the minimum
// customer age for the whole (bank, operation) script.
type Step struct {
	Text   string   `yaml:"text,omitempty"`
	Images []string `yaml:"images,omitempty"`
	Age    int      `yaml:"age,omitempty"`
}

type catalogFile struct {
	Banks map[string]map[string][]Step `yaml:"banks"`
}

// Catalog holds the instruction scripts loaded from a YAML file. It supports
// hot reload: Watch re-reads the file whenever its modification time changes.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	banks   map[string]map[model.OperationKind][]Step
	modTime time.Time
}

// New loads the catalog from path. A missing or empty file yields an empty
// catalog rather than an error: absence of instructions is a per-order
// condition, not a startup failure.
func New(path string, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{path: path, logger: logger, banks: map[string]map[model.OperationKind][]Step{}}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the scripts file, replacing the in-memory catalog on
// success and keeping the previous one on failure.
func (c *Catalog) Reload() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Warn("scripts file missing, catalog is empty", slog.String("path", c.path))
			return nil
		}
		return fmt.Errorf("stat scripts file: %w", err)
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read scripts file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse scripts file: %w", err)
	}

	banks, err := validate(file)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.banks = banks
	c.modTime = info.ModTime()
	c.mu.Unlock()

	c.logger.Info("instruction scripts loaded", slog.String("path", c.path), slog.Int("banks", len(banks)))
	return nil
}

func validate(file catalogFile) (map[string]map[model.OperationKind][]Step, error) {
	banks := make(map[string]map[model.OperationKind][]Step, len(file.Banks))
	for bank, operations := range file.Banks {
		ops := make(map[model.OperationKind][]Step, len(operations))
		for name, steps := range operations {
			kind := model.OperationKind(name)
			if !kind.Valid() {
				return nil, fmt.Errorf("bank %q: unknown operation %q", bank, name)
			}
			for i, step := range steps {
				if step.Text == "" && len(step.Images) == 0 && step.Age == 0 {
					return nil, fmt.Errorf("bank %q %s: step %d is empty", bank, name, i+1)
				}
			}
			ops[kind] = steps
		}
		banks[bank] = ops
	}
	return banks, nil
}

// Watch polls the file modification time and reloads on change until ctx is
// done. Reload failures are logged and the previous catalog stays live.
func (c *Catalog) Watch(done <-chan struct{}, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			info, err := os.Stat(c.path)
			if err != nil {
				continue
			}
			c.mu.RLock()
			changed := info.ModTime().After(c.modTime)
			c.mu.RUnlock()
			if !changed {
				continue
			}
			if err := c.Reload(); err != nil {
				c.logger.Error("scripts reload failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Steps returns the ordered script for a bank and operation, nil when absent.
func (c *Catalog) Steps(bank string, operation model.OperationKind) []Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.banks[bank][operation]
}

// Banks lists banks that carry a non-empty script for the operation, sorted
// by name for deterministic menus.
func (c *Catalog) Banks(operation model.OperationKind) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var names []string
	for bank, ops := range c.banks {
		if len(ops[operation]) > 0 {
			names = append(names, bank)
		}
	}
	sort.Strings(names)
	return names
}

// AgeRequirement returns the minimum age declared by the script, if any.
func (c *Catalog) AgeRequirement(bank string, operation model.OperationKind) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, step := range c.banks[bank][operation] {
		if step.Age > 0 {
			return step.Age, true
		}
	}
	return 0, false
}
