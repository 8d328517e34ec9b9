package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRegistryWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if got := len(reg.List()); got != 2 {
		t.Fatalf("variants = %d want 2", got)
	}
	if reg.Get("default") == nil {
		t.Fatalf("default variant missing")
	}
	quality := reg.Get("content-quality")
	if quality == nil || quality.Provider != "anthropic" {
		t.Fatalf("content-quality variant = %+v", quality)
	}
}

func TestNewRegistrySkipsDefaultsWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	custom := `id: custom
name: Custom
provider: openai
model: gpt-4o
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write custom: %v", err)
	}
	reg, err := NewRegistry(dir)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if got := len(reg.List()); got != 1 {
		t.Fatalf("variants = %d want 1", got)
	}
	if reg.Get("default") != nil {
		t.Fatalf("defaults written despite existing config")
	}
}

func TestSaveValidatesConfig(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if err := reg.Save(&VariantConfig{ID: "Bad ID", Name: "x", Provider: "openai", Model: "gpt-4o"}); err == nil {
		t.Fatalf("invalid id accepted")
	}
	if err := reg.Save(&VariantConfig{ID: "ollama", Name: "x", Provider: "ollama", Model: "llama3"}); err == nil || !strings.Contains(err.Error(), "provider") {
		t.Fatalf("unsupported provider accepted: %v", err)
	}
	if err := reg.Save(&VariantConfig{ID: "fast", Name: "Fast", Provider: "openai", Model: "gpt-4o-mini"}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if reg.Get("fast") == nil {
		t.Fatalf("saved variant not readable")
	}
}

func TestGetReturnsClone(t *testing.T) {
	reg, err := NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	first := reg.Get("default")
	first.Model = "mutated"
	if reg.Get("default").Model == "mutated" {
		t.Fatalf("registry state mutated through Get result")
	}
}
