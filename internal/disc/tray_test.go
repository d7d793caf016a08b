package disc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDriveStatusString(t *testing.T) {
	tests := []struct {
		status DriveStatus
		want   string
	}{
		{DriveStatusNoInfo, "no_info"},
		{DriveStatusNoDisc, "no_disc"},
		{DriveStatusTrayOpen, "tray_open"},
		{DriveStatusNotReady, "not_ready"},
		{DriveStatusDiscOK, "disc_ok"},
		{DriveStatus(99), "unknown(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.status.String()
			if got != tt.want {
				t.Errorf("DriveStatus(%d).String() = %q, want %q", int(tt.status), got, tt.want)
			}
		})
	}
}

func TestCheckDriveStatusEmptyPath(t *testing.T) {
	_, err := CheckDriveStatus("")
	if err == nil {
		t.Fatal("expected error for empty device path")
	}
}

func TestCheckDriveStatusInvalidPath(t *testing.T) {
	_, err := CheckDriveStatus("/dev/nonexistent_device_12345")
	if err == nil {
		t.Fatal("expected error for nonexistent device")
	}
}

func TestWaitForReadyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	check := func(string) (DriveStatus, error) { return DriveStatusNotReady, nil }
	status, err := WaitForReady(ctx, "/dev/sr0", WaitOptions{Check: check, PollInterval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if status != DriveStatusNotReady {
		t.Fatalf("status = %s", status)
	}
}

func TestWaitForReadyPollsUntilDiscOK(t *testing.T) {
	statuses := []DriveStatus{DriveStatusTrayOpen, DriveStatusNotReady, DriveStatusDiscOK}
	calls := 0
	check := func(string) (DriveStatus, error) {
		s := statuses[calls]
		calls++
		return s, nil
	}
	status, err := WaitForReady(context.Background(), "/dev/sr0", WaitOptions{Check: check, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("WaitForReady returned error: %v", err)
	}
	if status != DriveStatusDiscOK || calls != 3 {
		t.Fatalf("status=%s calls=%d", status, calls)
	}
}

func TestWaitForReadyGivesUp(t *testing.T) {
	check := func(string) (DriveStatus, error) { return DriveStatusNoDisc, nil }
	_, err := WaitForReady(context.Background(), "/dev/sr0", WaitOptions{Check: check, MaxPolls: 2, PollInterval: time.Millisecond})
	if err == nil {
		t.Fatal("expected error after exhausting polls")
	}
}

func TestNormalizeDevice(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/dev/sr0", "/dev/sr0"},
		{"dev:/dev/sr0", "/dev/sr0"},
		{"sr1", "/dev/sr1"},
		{"  /dev/cdrom ", "/dev/cdrom"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("input=%q", tt.input), func(t *testing.T) {
			got := NormalizeDevice(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeDevice(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
