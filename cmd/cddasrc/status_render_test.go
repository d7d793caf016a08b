package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"cddasrc/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Drive", statusError, "tray_open", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Drive:", "[ERROR] tray_open")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Drive", statusOK, "disc_ok", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestCheckKind(t *testing.T) {
	tests := []struct {
		name   string
		result preflight.Result
		want   statusKind
	}{
		{name: "passed", result: preflight.Result{Passed: true}, want: statusOK},
		{name: "optional failure", result: preflight.Result{Optional: true}, want: statusWarn},
		{name: "required failure", result: preflight.Result{}, want: statusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkKind(tt.result); got != tt.want {
				t.Fatalf("checkKind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderChecks(t *testing.T) {
	var buf bytes.Buffer
	renderChecks(&buf, "Checks", []preflight.Result{
		{Name: "Backend", Passed: true, Detail: "ioctl"},
		{Name: "eject", Optional: true, Detail: "not found"},
	}, false)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule, and two checks, got %q", lines)
	}
	if lines[0] != "== Checks ==" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], "[OK] ioctl") || !strings.Contains(lines[3], "[WARN] not found") {
		t.Fatalf("unexpected check lines %q", lines[2:])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestFormatMSF(t *testing.T) {
	tests := map[int]string{
		0:      "00:00.00",
		74:     "00:00.74",
		75:     "00:01.00",
		4500:   "01:00.00",
		339075: "75:21.00",
		-5:     "00:00.00",
	}
	for sectors, want := range tests {
		if got := formatMSF(sectors); got != want {
			t.Errorf("formatMSF(%d) = %q, want %q", sectors, got, want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0); got != "["+strings.Repeat(".", 30)+"]" {
		t.Fatalf("progressBar(0) = %q", got)
	}
	if got := progressBar(150); got != "["+strings.Repeat("#", 30)+"]" {
		t.Fatalf("progressBar(150) = %q", got)
	}
}
