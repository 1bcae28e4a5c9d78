package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/beacon/internal/catalog"
	"github.com/MrSnakeDoc/beacon/internal/logger"
	"github.com/MrSnakeDoc/beacon/internal/sources/manifest"
)

func newTestReloader(t *testing.T, manifestPath string, cat *catalog.Catalog) *CatalogReloader {
	t.Helper()
	return NewCatalogReloader(
		manifestPath,
		"beacon-",
		cat,
		logger.New("error", false),
		time.Minute,
		make(chan struct{}),
	)
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestReloadMissingManifestUsesDefaults(t *testing.T) {
	cat := catalog.New()
	cr := newTestReloader(t, filepath.Join(t.TempDir(), "nope.yml"), cat)

	cr.Reload()

	if got, want := cat.Count(), len(manifest.DefaultCatalog()); got != want {
		t.Fatalf("catalog size = %d, want %d", got, want)
	}
	if !cat.Fallback() {
		t.Error("catalog should be flagged as fallback")
	}
	if _, ok := cat.Get("mqtt-broker"); !ok {
		t.Error("default catalog should include the broker entry")
	}
}

func TestReloadMalformedManifestUsesDefaults(t *testing.T) {
	cat := catalog.New()
	cr := newTestReloader(t, writeManifest(t, "services: [not, {valid"), cat)

	cr.Reload()

	if got, want := cat.Count(), len(manifest.DefaultCatalog()); got != want {
		t.Fatalf("catalog size = %d, want %d", got, want)
	}
	if !cat.Fallback() {
		t.Error("catalog should be flagged as fallback")
	}
}

func TestReloadEmptyManifestUsesDefaults(t *testing.T) {
	cat := catalog.New()
	cr := newTestReloader(t, writeManifest(t, "services: []\n"), cat)

	cr.Reload()

	if got, want := cat.Count(), len(manifest.DefaultCatalog()); got != want {
		t.Fatalf("catalog size = %d, want %d", got, want)
	}
}

func TestReloadValidManifestReplacesCatalog(t *testing.T) {
	content := `
services:
  - name: beacon-stt
    host: 10.0.0.5
    port: 10300
    healthPath: /health
  - name: unrelated-service
    host: 10.0.0.9
    port: 9000
  - name: mosquitto
    kind: broker
    port: 1883
`
	cat := catalog.New()
	cr := newTestReloader(t, writeManifest(t, content), cat)

	cr.Reload()

	// The prefixed service and the broker survive; the foreign entry is
	// filtered out by the mapper.
	if got := cat.Count(); got != 2 {
		t.Fatalf("catalog size = %d, want 2", got)
	}
	if cat.Fallback() {
		t.Error("a usable manifest must not be flagged as fallback")
	}

	svc, ok := cat.Get("beacon-stt")
	if !ok {
		t.Fatal("beacon-stt missing from catalog")
	}
	if svc.Host != "10.0.0.5" || svc.Port != 10300 {
		t.Errorf("beacon-stt = %s:%d, want 10.0.0.5:10300", svc.Host, svc.Port)
	}
}

func TestReloadRecoversFromFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yml")
	cat := catalog.New()
	cr := newTestReloader(t, path, cat)

	cr.Reload()
	if !cat.Fallback() {
		t.Fatal("first reload without a manifest should fall back")
	}

	content := "services:\n  - name: beacon-tts\n    port: 10200\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	cr.Reload()
	if cat.Fallback() {
		t.Error("reload after the manifest appears should clear the fallback flag")
	}
	if got := cat.Count(); got != 1 {
		t.Errorf("catalog size = %d, want 1", got)
	}
}
