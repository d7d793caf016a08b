package disc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
)

// DefaultAliases are the conventional symlinks to the primary drive.
var DefaultAliases = []string{"/dev/cdrom", "/dev/dvd"}

// Prober lists optical drives from sysfs.
type Prober struct {
	// Crawl enumerates existing devices; defaults to the go-udev crawler.
	Crawl func(queue chan crawler.Device, errs chan error, matcher netlink.Matcher) chan struct{}
	// Aliases are appended when they exist.
	Aliases []string
	// Stat defaults to os.Stat.
	Stat func(string) (os.FileInfo, error)
}

// NewProber returns a prober over sysfs and DefaultAliases.
func NewProber() *Prober {
	return &Prober{Crawl: crawler.ExistingDevices, Aliases: DefaultAliases, Stat: os.Stat}
}

// ProbeDevices lists sr* block devices followed by any alias that exists.
// Only identical strings are folded: /dev/cdrom and the /dev/srN it points
// to are both returned.
func ProbeDevices() ([]string, error) {
	return NewProber().Probe(context.Background())
}

// Probe runs the crawl. Individual failures are collected and returned
// alongside whatever devices were found.
func (p *Prober) Probe(ctx context.Context) ([]string, error) {
	var result *multierror.Error

	found, err := p.crawl(ctx)
	if err != nil {
		result = multierror.Append(result, err)
	}
	sort.Strings(found)

	stat := p.Stat
	if stat == nil {
		stat = os.Stat
	}
	for _, alias := range p.Aliases {
		if _, err := stat(alias); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				result = multierror.Append(result, fmt.Errorf("stat %s: %w", alias, err))
			}
			continue
		}
		found = append(found, alias)
	}

	return dedupe(found), result.ErrorOrNil()
}

func (p *Prober) crawl(ctx context.Context) ([]string, error) {
	crawl := p.Crawl
	if crawl == nil {
		crawl = crawler.ExistingDevices
	}
	queue := make(chan crawler.Device)
	errs := make(chan error, 4)
	quit := crawl(queue, errs, opticalMatcher())

	var (
		devices []string
		result  *multierror.Error
	)
	for {
		select {
		case <-ctx.Done():
			close(quit)
			return devices, ctx.Err()
		case dev, ok := <-queue:
			if !ok {
				return devices, drain(errs, result).ErrorOrNil()
			}
			if name := NormalizeDevice(dev.Env["DEVNAME"]); name != "" {
				devices = append(devices, name)
			}
		case err := <-errs:
			result = multierror.Append(result, fmt.Errorf("crawl sysfs: %w", err))
		}
	}
}

func drain(errs chan error, result *multierror.Error) *multierror.Error {
	for {
		select {
		case err := <-errs:
			result = multierror.Append(result, fmt.Errorf("crawl sysfs: %w", err))
		default:
			return result
		}
	}
}

// opticalMatcher selects SCSI CD-ROM block nodes (sr0, sr1, ...).
func opticalMatcher() netlink.Matcher {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{
			"DEVNAME": `^(/dev/)?sr[0-9]+$`,
		},
	})
	return rules
}

func dedupe(devices []string) []string {
	if len(devices) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(devices))
	out := make([]string, 0, len(devices))
	for _, dev := range devices {
		if _, ok := seen[dev]; ok {
			continue
		}
		seen[dev] = struct{}{}
		out = append(out, dev)
	}
	return out
}
