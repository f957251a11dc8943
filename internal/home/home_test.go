package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-hrbp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-hrbp" {
			t.Errorf("expected path /tmp/test-hrbp, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-hrbp")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DataPath", dir.DataPath(), "/tmp/test-hrbp/data"},
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-hrbp/config.yaml"},
		{"EnvPath", dir.EnvPath(), "/tmp/test-hrbp/.env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	hrbpDir := filepath.Join(tmpDir, "hrbp-test")

	dir, err := New(hrbpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	if _, err := os.Stat(dir.DataPath()); os.IsNotExist(err) {
		t.Error("data directory should exist after EnsureExists")
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	if err := os.WriteFile(dir.ConfigPath(), []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}

func TestDir_ResolveDatasetDir(t *testing.T) {
	dir, _ := New(t.TempDir())

	t.Run("explicit wins", func(t *testing.T) {
		if got := dir.ResolveDatasetDir("/srv/hr"); got != "/srv/hr" {
			t.Errorf("expected /srv/hr, got %s", got)
		}
	})

	t.Run("defaults to working directory", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Skipf("no working directory: %v", err)
		}
		if got := dir.ResolveDatasetDir(""); got != wd {
			t.Errorf("expected %s, got %s", wd, got)
		}
	})
}
