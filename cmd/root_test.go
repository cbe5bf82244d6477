package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zpam/spam-nb/pkg/config"
)

// writeWorkspace lays out a vocabulary, four corpora and a config file
func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(path, content string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write(filepath.Join(dir, "words.txt"), "free\nmoney\nmeeting\nagenda\nat\n")
	for _, set := range []string{"train", "test"} {
		for i := 0; i < 3; i++ {
			write(filepath.Join(dir, set, "spam", fmt.Sprintf("%d.txt", i)), "free money now!")
			write(filepath.Join(dir, set, "ham", fmt.Sprintf("%d.txt", i)), "meeting agenda, tomorrow")
		}
	}

	cfg := config.DefaultConfig()
	cfg.Vocabulary.Path = filepath.Join(dir, "words.txt")
	cfg.Corpus.TrainSpam = filepath.Join(dir, "train", "spam")
	cfg.Corpus.TrainHam = filepath.Join(dir, "train", "ham")
	cfg.Corpus.TestSpam = filepath.Join(dir, "test", "spam")
	cfg.Corpus.TestHam = filepath.Join(dir, "test", "ham")
	cfg.Model.Dir = filepath.Join(dir, "models")
	cfg.Performance.Workers = 2

	path := filepath.Join(dir, "config.yaml")
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrainThenEvaluate(t *testing.T) {
	configPath := writeWorkspace(t)

	rootCmd.SetArgs([]string{"train", "--config", configPath, "--model", "pipeline"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("train error = %v", err)
	}

	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		t.Fatalf("openSession() error = %v", err)
	}
	defer s.Close()

	if s.cfg.Model.Name != "pipeline" {
		t.Fatalf("Model.Name = %q, want the --model override", s.cfg.Model.Name)
	}

	model, err := s.loadModel(ctx)
	if err != nil {
		t.Fatalf("loadModel() error = %v", err)
	}
	// "at" is shorter than the minimum word length
	if got := model.Vocabulary().Len(); got != 4 {
		t.Errorf("Vocabulary().Len() = %d, want 4", got)
	}
	if model.MSpam() != 3 || model.MHam() != 3 {
		t.Errorf("corpus sizes = %d/%d, want 3/3", model.MSpam(), model.MHam())
	}

	spam, err := model.ClassifyText("free money")
	if err != nil {
		t.Fatal(err)
	}
	if !spam.IsSpam {
		t.Errorf("ClassifyText(free money) = %+v, want spam", spam)
	}

	rootCmd.SetArgs([]string{"test", "--config", configPath, "--model", "pipeline", "--quiet"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("test error = %v", err)
	}
}

func TestLoadMissingModel(t *testing.T) {
	configPath := writeWorkspace(t)

	rootCmd.SetArgs([]string{"classify", "--config", configPath, "--model", "absent", "whatever.txt"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("classify should fail without a trained model")
	}
}

func TestInvalidModelName(t *testing.T) {
	configFile = ""
	modelName = "../escape"
	defer func() { modelName = "" }()

	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() should reject a path-like model name")
	}
}

func TestClassifyKeepsArgumentOrder(t *testing.T) {
	configPath := writeWorkspace(t)

	rootCmd.SetArgs([]string{"train", "--config", configPath, "--model", "ordered"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("train error = %v", err)
	}

	dir := t.TempDir()
	var paths []string
	for i := 20; i > 0; i-- {
		path := filepath.Join(dir, fmt.Sprintf("doc-%02d.txt", i))
		content := "meeting agenda"
		if i%2 == 0 {
			content = "free money"
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	rootCmd.SetArgs(append([]string{"classify", "--config", configPath, "--model", "ordered"}, paths...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("classify error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(paths) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(paths), out.String())
	}
	for i, line := range lines {
		if !strings.Contains(line, paths[i]+" ") {
			t.Errorf("line %d = %q, want document %s", i, line, paths[i])
		}
	}
}
