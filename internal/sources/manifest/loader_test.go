package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoaderRoundTrip(t *testing.T) {
	content := `
services:
  - name: beacon-stt
    host: 10.0.0.5
    port: 10300
    healthPath: /health
  - name: mosquitto
    kind: broker
    port: 1883
    meta:
      zone: lab
`
	path := filepath.Join(t.TempDir(), "services.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	f, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Services) != 2 {
		t.Fatalf("parsed %d services, want 2", len(f.Services))
	}

	want := ServiceEntry{Name: "beacon-stt", Host: "10.0.0.5", Port: 10300, HealthPath: "/health"}
	if !reflect.DeepEqual(f.Services[0], want) {
		t.Errorf("first entry = %+v, want %+v", f.Services[0], want)
	}
	if f.Services[1].Meta["zone"] != "lab" {
		t.Errorf("meta not preserved: %+v", f.Services[1].Meta)
	}
}

func TestLoaderDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yml")
	if err := os.WriteFile(path, []byte("services:\n  - name: beacon-stt\n    port: 10300\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	loader := NewLoader(path)
	first, err := loader.Load()
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, err := loader.Load()
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("loading an unchanged file twice should produce an equal result")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yml")).Load(); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestLoaderMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yml")
	if err := os.WriteFile(path, []byte("services: [broken"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := NewLoader(path).Load(); err == nil {
		t.Fatal("expected error for malformed manifest")
	}
}
