package disc

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"cddasrc/internal/logging"
)

// MediaHandler is called when media appears in a watched drive.
type MediaHandler func(ctx context.Context, device string)

// Monitor listens for udev netlink events and reports media insertion.
type Monitor struct {
	logger  *slog.Logger
	handler MediaHandler
	device  string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewMonitor creates a monitor. An empty device watches every CD-ROM drive.
func NewMonitor(device string, logger *slog.Logger, handler MediaHandler) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "netlink-monitor"),
		handler: handler,
		device:  NormalizeDevice(device),
	}
}

// Start connects to the udev netlink socket and begins dispatching events.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the process may open netlink sockets"),
			logging.String(logging.FieldImpact, "automatic disc detection unavailable"),
		)
		return err
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	go m.monitorLoop(ctx, conn, m.quit, m.done)

	m.logger.Info("netlink monitor started",
		logging.String(logging.FieldEventType, "netlink_monitor_started"),
		logging.Device(m.device),
	)
	return nil
}

// Stop shuts down the monitor and waits for the loop to exit.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	done := m.done
	conn := m.conn
	m.quit, m.done, m.conn = nil, nil, nil
	m.running = false
	m.mu.Unlock()

	<-done
	if conn != nil {
		_ = conn.Close()
	}
	m.logger.Info("netlink monitor stopped",
		logging.String(logging.FieldEventType, "netlink_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, mediaMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "disc detection may be affected"),
			)
		}
	}
}

// mediaMatcher matches SUBSYSTEM=block, ID_CDROM=1, ID_CDROM_MEDIA=1 on
// change or add.
func mediaMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := deviceFromEvent(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}
	if m.device != "" && devname != m.device {
		m.logger.Debug("ignoring event for other device",
			logging.Device(devname),
			logging.String("watched_device", m.device),
		)
		return
	}
	if uevent.Env["ID_CDROM_MEDIA_TRACK_COUNT_AUDIO"] == "" {
		m.logger.Debug("media has no audio tracks", logging.Device(devname))
		return
	}

	m.logger.Info("audio disc detected via netlink",
		logging.String(logging.FieldEventType, "netlink_disc_detected"),
		logging.Device(devname),
		logging.String("action", string(uevent.Action)),
	)
	if m.handler != nil {
		m.handler(ctx, devname)
	}
}

// deviceFromEvent gets the device path from a uevent.
func deviceFromEvent(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return NormalizeDevice(devname)
	}

	// DEVPATH looks like /devices/pci.../block/sr0.
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return NormalizeDevice(parts[len(parts)-1])
}
