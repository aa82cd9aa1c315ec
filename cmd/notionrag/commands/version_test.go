// ABOUTME: Tests for version command
// ABOUTME: Verifies version info display and SetVersion functionality

package commands

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func withVersion(t *testing.T, version, commit, date string) {
	t.Helper()
	original := versionInfo
	t.Cleanup(func() { versionInfo = original })
	SetVersion(version, commit, date)
}

func TestVersionCmd_Output(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2026-01-31")

	cmd := NewVersionCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, expected := range []string{"notionrag 1.2.3", "commit abc123", "built 2026-01-31", runtime.Version()} {
		if !strings.Contains(output.String(), expected) {
			t.Errorf("Output should contain %q, got:\n%s", expected, output.String())
		}
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	withVersion(t, "2.0.0-beta", "deadbeef", "2026-06-15T10:30:00Z")

	cmd := NewRootCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetArgs([]string{"--format", "json", "version"})
	t.Cleanup(func() { outputFormat = "auto" })

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got VersionInfo
	if err := json.Unmarshal(output.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output.String())
	}
	if got != versionInfo {
		t.Errorf("got %+v, want %+v", got, versionInfo)
	}
}
