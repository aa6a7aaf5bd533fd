package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

const initHook = "../../docker/initdb.d/10-mongo-init.sh"

// entrypointLoop mirrors how the mongo image's docker-entrypoint.sh handles
// /docker-entrypoint-initdb.d: every *.sh file is sourced in the entrypoint's
// own shell, then the temporary mongod is shut down and the real one started.
const entrypointLoop = `
set -e
for f in "$INITDB_DIR"/*; do
	case "$f" in
		*.sh) echo "running $f"; . "$f" ;;
	esac
done
echo "init finished"
`

func runInitHook(t *testing.T, stubExit string) (string, error) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	binDir := t.TempDir()
	stub := "#!/bin/sh\necho \"mongo-init $*\"\nexit " + stubExit + "\n"
	if err := os.WriteFile(filepath.Join(binDir, "mongo-init"), []byte(stub), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	hook, err := os.ReadFile(initHook)
	if err != nil {
		t.Fatalf("read init hook: %v", err)
	}
	initDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(initDir, "10-mongo-init.sh"), hook, 0o755); err != nil {
		t.Fatalf("copy init hook: %v", err)
	}
	if err := os.WriteFile(filepath.Join(initDir, "20-next.sh"), []byte("echo next hook ran\n"), 0o644); err != nil {
		t.Fatalf("write next hook: %v", err)
	}

	cmd := exec.Command("sh", "-c", entrypointLoop)
	cmd.Env = append(os.Environ(),
		"PATH="+binDir+string(os.PathListSeparator)+os.Getenv("PATH"),
		"INITDB_DIR="+initDir,
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInitHook_ReturnsToEntrypoint(t *testing.T) {
	out, err := runInitHook(t, "0")
	if err != nil {
		t.Fatalf("entrypoint failed: %v\n%s", err, out)
	}

	for _, want := range []string{"mongo-init create-user", "next hook ran", "init finished"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInitHook_FailureAbortsInit(t *testing.T) {
	out, err := runInitHook(t, "1")
	if err == nil {
		t.Fatalf("expected entrypoint to fail when mongo-init fails:\n%s", out)
	}
	if strings.Contains(out, "init finished") {
		t.Errorf("init continued after mongo-init failed:\n%s", out)
	}
}
