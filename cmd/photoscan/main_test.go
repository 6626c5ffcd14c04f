package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"photoscan/internal/config"
	"photoscan/internal/daemon"
	"photoscan/internal/identity"
	"photoscan/internal/logging"
	"photoscan/internal/scanner"
	"photoscan/internal/store"
	"photoscan/internal/testsupport"
	"photoscan/internal/vision"
)

type stubEnricher struct {
	model string
}

func (e *stubEnricher) Enrich(ctx context.Context, path string) vision.Result {
	return vision.Result{
		Description: "Description: a test photo. Entities: none",
		Model:       e.model,
	}
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	controller *scanner.Controller
	hub        *logging.StreamHub
	addr       string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(cfg.Paths.DataDir, "config.toml")
	writeTestConfig(t, configPath, cfg)

	s := testsupport.MustOpenStore(t, cfg)
	registry := identity.NewRegistry(s, cfg.Entities.MatchThreshold, nil)
	ctrl := scanner.New(cfg, s, &stubEnricher{model: "llava:test"}, registry, nil)
	hub := logging.NewStreamHub(cfg.Scanner.LogBufferLines)

	d, err := daemon.New(cfg, s, ctrl, registry, hub, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      s,
		controller: ctrl,
		hub:        hub,
		addr:       d.APIAddr(),
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	raw, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--addr", env.addr, "--config", env.configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func waitForIdle(t *testing.T, ctrl *scanner.Controller) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status := ctrl.Status()
		if status.State == scanner.StateIdle && status.Total > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("scan did not finish: %+v", ctrl.Status())
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIScanAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	testsupport.WriteFile(t, dir, "a.jpg", []byte("bytes-a"))
	testsupport.WriteFile(t, dir, "b.jpg", []byte("bytes-a"))

	out, err := runCLI(t, env, "scan", dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Scan started")
	requireContains(t, out, dir)

	waitForIdle(t, env.controller)

	out, err = runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running:   yes")
	requireContains(t, out, "idle")

	out, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, dir)

	out, err = runCLI(t, env, "duplicates")
	if err != nil {
		t.Fatalf("duplicates: %v", err)
	}
	requireContains(t, out, "Original")
}

func TestCLIScanControlConflicts(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, err := runCLI(t, env, "pause"); err == nil {
		t.Fatal("expected pause with no scan running to fail")
	}
	if _, err := runCLI(t, env, "scan", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected scan of a missing directory to fail")
	}
}

func TestCLIEntitiesCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	person, err := env.store.CreateEntity(ctx, store.EntityPerson, "Unknown Person 1", "[0.1,0.2]")
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	if _, err := env.store.CreateEntity(ctx, store.EntityPet, "Unknown Beagle", ""); err != nil {
		t.Fatalf("CreateEntity pet: %v", err)
	}

	out, err := runCLI(t, env, "entities", "list")
	if err != nil {
		t.Fatalf("entities list: %v", err)
	}
	requireContains(t, out, "Unknown Person 1")
	requireContains(t, out, "Unknown Beagle")

	out, err = runCLI(t, env, "entities", "rename", strconv.FormatInt(person.ID, 10), "Grandma Joan")
	if err != nil {
		t.Fatalf("entities rename: %v", err)
	}
	requireContains(t, out, "Grandma Joan")

	renamed, err := env.store.EntityByID(ctx, person.ID)
	if err != nil {
		t.Fatalf("EntityByID: %v", err)
	}
	if renamed.Name != "Grandma Joan" {
		t.Fatalf("expected rename to persist, got %q", renamed.Name)
	}

	out, err = runCLI(t, env, "entities", "rm", "Grandma Joan")
	if err != nil {
		t.Fatalf("entities rm: %v", err)
	}
	requireContains(t, out, "Deleted 1 entity")

	if _, err := runCLI(t, env, "entities", "rm", "Grandma Joan"); err == nil {
		t.Fatal("expected removing an absent name to fail")
	}
}

func TestCLILogs(t *testing.T) {
	env := setupCLITestEnv(t)

	env.hub.Publish(logging.LogEvent{
		Timestamp: time.Now(),
		Level:     "info",
		Message:   "scan checkpoint reached",
		Component: "scanner",
	})

	out, err := runCLI(t, env, "logs", "--limit", "10")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "scan checkpoint reached")
	requireContains(t, out, "[scanner]")
}

func TestCLIConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}
}
