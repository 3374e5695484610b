package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadVersionFile_FillsDefaultsOnly(t *testing.T) {
	origVersion, origBuild, origCommit := Version, Build, GitCommit
	t.Cleanup(func() {
		Version, Build, GitCommit = origVersion, origBuild, origCommit
	})

	Version = "dev"
	Build = "2026-01-01"
	GitCommit = "unknown"

	path := filepath.Join(t.TempDir(), ".version")
	content := "# build info\nversion: 1.4.2\nbuild: 2026-10-19\ncommit: abc1234\nmalformed line\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write version file: %v", err)
	}

	loadVersionFile(path)

	info := GetVersionInfo()
	if info.Version != "1.4.2" {
		t.Errorf("Version = %q, want 1.4.2", info.Version)
	}
	if info.Build != "2026-01-01" {
		t.Errorf("Build = %q, ldflags value should win", info.Build)
	}
	if info.Commit != "abc1234" {
		t.Errorf("Commit = %q, want abc1234", info.Commit)
	}
}

func TestLoadVersionFile_MissingFileIsNoop(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "dev"
	loadVersionFile(filepath.Join(t.TempDir(), "nope"))
	if Version != "dev" {
		t.Errorf("Version = %q, want dev", Version)
	}
}
