package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"oracle/config"
)

func TestLookup(t *testing.T) {
	m, ok := Lookup("mistral-7b-openorca.Q4_0.gguf")
	if !ok || m.Name != "Mistral 7B OpenOrca" {
		t.Errorf("expected catalog entry, got %+v %v", m, ok)
	}
	if _, ok := Lookup("missing.gguf"); ok {
		t.Error("unexpected entry for unknown model")
	}
}

func TestInstalledAndSelect(t *testing.T) {
	dir := t.TempDir()
	file := "orca-2-7b.Q4_0.gguf"
	if err := os.WriteFile(filepath.Join(dir, file), []byte("gguf"), 0644); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "random.gguf"), []byte("gguf"), 0644)

	installed := Installed(dir)
	if len(installed) != 1 || installed[0] != file {
		t.Errorf("expected only %s installed, got %v", file, installed)
	}

	cfg := config.DefaultConfig()
	if err := Select(cfg, file, dir); err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Model != file {
		t.Errorf("expected model %s, got %s", file, cfg.Generation.Model)
	}

	if err := Select(cfg, "random.gguf", dir); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
	if err := Select(cfg, "wizardlm-13b-v1.2.Q4_0.gguf", dir); !errors.Is(err, ErrNotInstalled) {
		t.Errorf("expected ErrNotInstalled, got %v", err)
	}
	if cfg.Generation.Model != file {
		t.Error("failed selection must not change the config")
	}
}

func TestStars(t *testing.T) {
	if got := Stars(3, "*"); got != "***" {
		t.Errorf("expected ***, got %q", got)
	}
}
