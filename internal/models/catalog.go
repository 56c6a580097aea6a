// Package models lists the local language models the oracle is known to work
// with and manages which one is selected.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"oracle/config"
)

var (
	ErrUnknownModel = errors.New("model is not in the catalog")
	ErrNotInstalled = errors.New("model is not installed")
)

// Model describes a GGUF model file. Quality and Speed are 1-5 ratings.
type Model struct {
	File        string
	Name        string
	Size        string
	Quality     int
	Speed       int
	Description string
	BestFor     string
}

// Catalog is ordered by recommendation.
var Catalog = []Model{
	{
		File: "mistral-7b-openorca.Q4_0.gguf", Name: "Mistral 7B OpenOrca", Size: "3.8 GB", Quality: 5, Speed: 4,
		Description: "Best balance between quality and speed. Recommended.",
		BestFor:     "General use, technical questions",
	},
	{
		File: "mistral-7b-instruct-v0.1.Q4_0.gguf", Name: "Mistral 7B Instruct", Size: "3.8 GB", Quality: 5, Speed: 4,
		Description: "Tuned to follow instructions precisely",
		BestFor:     "Tasks that need literal accuracy",
	},
	{
		File: "orca-2-7b.Q4_0.gguf", Name: "Orca 2 7B", Size: "3.8 GB", Quality: 4, Speed: 4,
		Description: "Good logical reasoning",
		BestFor:     "Technical document analysis",
	},
	{
		File: "nous-hermes-llama2-13b.Q4_0.gguf", Name: "Nous Hermes LLaMA2 13B", Size: "7.3 GB", Quality: 5, Speed: 3,
		Description: "Larger and more accurate, but slower",
		BestFor:     "When accuracy is critical",
	},
	{
		File: "gpt4all-falcon-q4_0.gguf", Name: "GPT4All Falcon", Size: "3.9 GB", Quality: 4, Speed: 4,
		Description: "Open model with good versatility",
		BestFor:     "General use",
	},
	{
		File: "wizardlm-13b-v1.2.Q4_0.gguf", Name: "WizardLM 13B", Size: "7.3 GB", Quality: 5, Speed: 3,
		Description: "Strong at complex reasoning",
		BestFor:     "Complex questions that need deep analysis",
	},
	{
		File: "orca-mini-3b-gguf2-q4_0.gguf", Name: "Orca Mini 3B", Size: "1.8 GB", Quality: 3, Speed: 5,
		Description: "Small and fast, good for testing",
		BestFor:     "Low-memory machines, quick answers",
	},
}

// Lookup finds a catalog entry by file name.
func Lookup(file string) (Model, bool) {
	for _, m := range Catalog {
		if m.File == file {
			return m, true
		}
	}
	return Model{}, false
}

// IsInstalled reports whether file exists in dir.
func IsInstalled(dir, file string) bool {
	st, err := os.Stat(filepath.Join(dir, file))
	return err == nil && !st.IsDir()
}

// Installed returns the catalog files present in dir, in catalog order.
func Installed(dir string) []string {
	var installed []string
	for _, m := range Catalog {
		if IsInstalled(dir, m.File) {
			installed = append(installed, m.File)
		}
	}
	return installed
}

// Select makes file the configured generation model. The model must be in
// the catalog and present in modelsDir. The caller persists cfg.
func Select(cfg *config.Config, file, modelsDir string) error {
	if _, ok := Lookup(file); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, file)
	}
	if !IsInstalled(modelsDir, file) {
		return fmt.Errorf("%w: %s not found in %s", ErrNotInstalled, file, modelsDir)
	}
	cfg.Generation.Model = file
	return nil
}

// Stars renders a 1-5 rating.
func Stars(n int, symbol string) string {
	return strings.Repeat(symbol, n)
}
