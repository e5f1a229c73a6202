package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stagehand-dev/stagehand/internal/config"
)

func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	return New(io.Discard, LogInfo)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newTestCLI(t).RootCommand()

	want := []string{"resolve", "graph", "catalog", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	c := newTestCLI(t)
	c.configPath = filepath.Join(t.TempDir(), "nope.toml")

	if err := c.loadConfig(); err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if c.Config.Cache.Backend != config.CacheBackendFile {
		t.Errorf("Backend = %q, want %q", c.Config.Cache.Backend, config.CacheBackendFile)
	}
}

func TestCacheDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")
	c := newTestCLI(t)

	want := filepath.Join("/tmp/xdg-test", appName)
	if got := c.cacheDir(); got != want {
		t.Errorf("cacheDir() = %q, want %q", got, want)
	}
}

func TestCacheDirConfigOverride(t *testing.T) {
	c := newTestCLI(t)
	c.Config.Cache.Dir = "/custom/cache"

	if got := c.cacheDir(); got != "/custom/cache" {
		t.Errorf("cacheDir() = %q, want /custom/cache", got)
	}
}

func TestResolveInputPathFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveInputPath(path)
	if err != nil {
		t.Fatalf("resolveInputPath failed: %v", err)
	}
	if got != path {
		t.Errorf("resolveInputPath = %q, want %q", got, path)
	}
}

func TestResolveInputPathMissing(t *testing.T) {
	if _, err := resolveInputPath(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestScanLayouts(t *testing.T) {
	dir := t.TempDir()

	valid := `{"room": {"width": 4, "depth": 3, "height": 2.5}, "objects": [{"id": "a"}, {"id": "b"}]}`
	if err := os.WriteFile(filepath.Join(dir, "bedroom.json"), []byte(valid), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := scanLayouts(dir)
	if err != nil {
		t.Fatalf("scanLayouts failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (txt files ignored)", len(entries))
	}

	// Sorted by name: bedroom.json before broken.json.
	if entries[0].Name != "bedroom.json" || !entries[0].Valid {
		t.Errorf("entry 0 = %+v, want valid bedroom.json", entries[0])
	}
	if entries[0].Objects != 2 {
		t.Errorf("Objects = %d, want 2", entries[0].Objects)
	}
	if entries[1].Name != "broken.json" || entries[1].Valid {
		t.Errorf("entry 1 = %+v, want invalid broken.json", entries[1])
	}
}
