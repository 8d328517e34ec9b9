package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var variantIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Registry struct {
	dir      string
	variants map[string]*VariantConfig
	mu       sync.RWMutex
}

func NewRegistry(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("models dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	if err := ensureDefaults(dir); err != nil {
		return nil, err
	}

	r := &Registry{
		dir:      dir,
		variants: make(map[string]*VariantConfig),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Get(id string) *VariantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.variants[id]
	if !ok {
		return nil
	}
	return cloneConfig(cfg)
}

func (r *Registry) List() []*VariantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*VariantConfig, 0, len(r.variants))
	for _, cfg := range r.variants {
		result = append(result, cloneConfig(cfg))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result
}

func (r *Registry) Reload() error {
	loaded, err := loadDir(r.dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.variants = loaded
	r.mu.Unlock()
	return nil
}

func (r *Registry) Save(cfg *VariantConfig) error {
	if cfg == nil {
		return errors.New("variant config is required")
	}
	clean := cloneConfig(cfg)
	if err := validate(clean); err != nil {
		return err
	}

	data, err := yaml.Marshal(clean)
	if err != nil {
		return fmt.Errorf("marshal variant config: %w", err)
	}
	path := filepath.Join(r.dir, clean.ID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write variant config %q: %w", path, err)
	}

	r.mu.Lock()
	r.variants[clean.ID] = clean
	r.mu.Unlock()
	return nil
}

func (r *Registry) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	path := filepath.Join(r.dir, id+".yaml")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete variant config %q: %w", path, err)
	}

	r.mu.Lock()
	delete(r.variants, id)
	r.mu.Unlock()
	return nil
}

func loadDir(dir string) (map[string]*VariantConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read registry dir: %w", err)
	}

	loaded := make(map[string]*VariantConfig)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		cfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if _, exists := loaded[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate variant id %q", cfg.ID)
		}
		loaded[cfg.ID] = cfg
	}
	return loaded, nil
}

func loadFile(path string) (*VariantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variant config %q: %w", path, err)
	}
	var cfg VariantConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse variant config %q: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *VariantConfig) error {
	if cfg == nil {
		return errors.New("variant config is required")
	}
	if err := validateID(cfg.ID); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return errors.New("name is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("provider must be anthropic or openai, got %q", cfg.Provider)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return errors.New("model is required")
	}
	return nil
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("id is required")
	}
	if !variantIDPattern.MatchString(id) {
		return errors.New("id must be lowercase alphanumeric with hyphens")
	}
	return nil
}

func cloneConfig(cfg *VariantConfig) *VariantConfig {
	if cfg == nil {
		return nil
	}
	out := *cfg
	return &out
}
