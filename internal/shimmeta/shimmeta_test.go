package shimmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alangmartini/godly-terminal-sub001/internal/model"
)

func TestWriteAndDiscoverSurvivor(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	desc := model.ShimDescriptor{
		SessionID:    "abc",
		ShimPID:      os.Getpid(),
		ShimPipeName: "godly-shim-abc",
		ShellPID:     os.Getpid(),
		ShellType:    model.ShellType{Kind: model.KindCustom, Program: "bash"},
		Rows:         24,
		Cols:         80,
		CreatedAt:    time.Now(),
	}
	if err := s.Write(desc); err != nil {
		t.Fatal(err)
	}

	survivors, err := s.DiscoverSurvivingShims()
	if err != nil {
		t.Fatal(err)
	}
	if len(survivors) != 1 || survivors[0].SessionID != "abc" {
		t.Fatalf("got %+v", survivors)
	}
}

func TestDiscoverRemovesDeadPID(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	desc := model.ShimDescriptor{SessionID: "dead", ShimPID: 999999999}
	if err := s.Write(desc); err != nil {
		t.Fatal(err)
	}
	survivors, err := s.DiscoverSurvivingShims()
	if err != nil {
		t.Fatal(err)
	}
	if len(survivors) != 0 {
		t.Fatalf("expected dead shim removed, got %+v", survivors)
	}
	if _, err := os.Stat(filepath.Join(dir, "dead.json")); !os.IsNotExist(err) {
		t.Fatal("expected stale descriptor file removed")
	}
}

func TestDiscoverRemovesUnparseable(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DiscoverSurvivingShims(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(err) {
		t.Fatal("expected unparseable descriptor removed")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	desc := model.ShimDescriptor{SessionID: "x", ShimPID: os.Getpid()}
	if err := s.Write(desc); err != nil {
		t.Fatal(err)
	}
	s.Remove("x")
	if _, err := os.Stat(filepath.Join(dir, "x.json")); !os.IsNotExist(err) {
		t.Fatal("expected descriptor removed")
	}
}
