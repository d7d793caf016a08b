package logging

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)

	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Error("expected NoopHandler when all handlers are nil")
	}
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Error("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsChildLevels(t *testing.T) {
	var console, file bytes.Buffer
	h := newFanoutHandler(
		slog.NewJSONHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With(slog.String("device", "/dev/sr0"))

	logger.Debug("sector read", slog.Int("sector", 42))

	if console.Len() != 0 {
		t.Errorf("console received debug record: %s", console.String())
	}
	if !bytes.Contains(file.Bytes(), []byte(`"sector":42`)) {
		t.Errorf("file missing debug record: %s", file.String())
	}
	if !bytes.Contains(file.Bytes(), []byte(`"device":"/dev/sr0"`)) {
		t.Errorf("file missing inherited attrs: %s", file.String())
	}

	logger.WithGroup("rip").Info("done", slog.Int("tracks", 3))
	for name, buf := range map[string]*bytes.Buffer{"console": &console, "file": &file} {
		if !bytes.Contains(buf.Bytes(), []byte(`"rip":{"tracks":3}`)) {
			t.Errorf("%s missing grouped attrs: %s", name, buf.String())
		}
	}
}
