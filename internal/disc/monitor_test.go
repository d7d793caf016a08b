package disc

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"
)

func TestMonitorNilSafety(t *testing.T) {
	var m *Monitor
	if m.Running() {
		t.Error("nil monitor reports running")
	}
	m.Stop()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
}

func TestMonitorStopUnstarted(t *testing.T) {
	m := NewMonitor("/dev/sr0", nil, nil)
	m.Stop()
	if m.Running() {
		t.Error("expected not running")
	}
}

func TestMonitorHandleEvent(t *testing.T) {
	tests := []struct {
		name    string
		watch   string
		env     map[string]string
		wantDev string
	}{
		{
			name:    "audio disc in watched drive",
			watch:   "/dev/sr0",
			env:     map[string]string{"DEVNAME": "/dev/sr0", "ID_CDROM_MEDIA_TRACK_COUNT_AUDIO": "12"},
			wantDev: "/dev/sr0",
		},
		{
			name:  "other drive",
			watch: "/dev/sr0",
			env:   map[string]string{"DEVNAME": "/dev/sr1", "ID_CDROM_MEDIA_TRACK_COUNT_AUDIO": "12"},
		},
		{
			name:  "data disc",
			watch: "",
			env:   map[string]string{"DEVNAME": "/dev/sr0"},
		},
		{
			name:    "devpath fallback with any drive",
			watch:   "",
			env:     map[string]string{"DEVPATH": "/devices/pci0000:00/block/sr2", "ID_CDROM_MEDIA_TRACK_COUNT_AUDIO": "3"},
			wantDev: "/dev/sr2",
		},
		{
			name:  "no device",
			watch: "",
			env:   map[string]string{"ID_CDROM_MEDIA_TRACK_COUNT_AUDIO": "3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			m := NewMonitor(tt.watch, nil, func(_ context.Context, device string) { got = device })
			m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.CHANGE, Env: tt.env})
			if got != tt.wantDev {
				t.Fatalf("handler got %q, want %q", got, tt.wantDev)
			}
		})
	}
}

func TestMediaMatcher(t *testing.T) {
	matcher := mediaMatcher()
	media := netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "block", "ID_CDROM": "1", "ID_CDROM_MEDIA": "1"},
	}
	if !matcher.Evaluate(media) {
		t.Error("expected media change to match")
	}
	removed := netlink.UEvent{
		Action: netlink.REMOVE,
		Env:    map[string]string{"SUBSYSTEM": "block", "ID_CDROM": "1", "ID_CDROM_MEDIA": "1"},
	}
	if matcher.Evaluate(removed) {
		t.Error("remove event should not match")
	}
}
