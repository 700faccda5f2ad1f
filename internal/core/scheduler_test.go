package core_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/JonMunkholm/tbms/internal/core"
)

func TestWriteBackup(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	svc.AppendRow(ctx, core.TableStores, core.Record{"id": "s1", "name": "Soho"})

	dir := t.TempDir()
	path, err := svc.WriteBackup(ctx, dir)
	if err != nil {
		t.Fatalf("WriteBackup: %v", err)
	}
	if filepath.Base(path) != "tbms-20260101T120000Z.json.xz" {
		t.Errorf("backup name = %s", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer f.Close()

	zr, err := xz.NewReader(f)
	if err != nil {
		t.Fatalf("xz reader: %v", err)
	}
	var snap map[string][][]any
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	stores := snap[core.TableStores]
	if len(stores) != 2 || stores[1][0] != "s1" {
		t.Errorf("Stores snapshot = %v", stores)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("backup dir has %d entries, want 1 (temp file removed)", len(entries))
	}
}

func TestPruneBackups(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"tbms-20260101T000000Z.xlsx.xz",
		"tbms-20260102T000000Z.xlsx.xz",
		"tbms-20260103T000000Z.xlsx.xz",
		"tbms-20260104T000000Z.xlsx.xz",
		"notes.txt",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := core.PruneBackups(dir, 2)
	if err != nil {
		t.Fatalf("PruneBackups: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	entries, _ := os.ReadDir(dir)
	var left []string
	for _, e := range entries {
		left = append(left, e.Name())
	}
	got := strings.Join(left, ",")
	want := "notes.txt,tbms-20260103T000000Z.xlsx.xz,tbms-20260104T000000Z.xlsx.xz"
	if got != want {
		t.Errorf("remaining = %s, want %s", got, want)
	}

	if removed, _ := core.PruneBackups(dir, 5); removed != 0 {
		t.Errorf("second prune removed %d, want 0", removed)
	}
}

func TestStartBackupSchedulerStops(t *testing.T) {
	svc, _ := newService(t, nil)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartBackupScheduler(ctx, core.BackupConfig{Dir: dir, Interval: time.Hour, Keep: 3})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if entries, _ := os.ReadDir(dir); len(entries) == 1 && strings.HasSuffix(entries[0].Name(), ".xz") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("backups = %d, want 1 immediate backup", len(entries))
	}
}
