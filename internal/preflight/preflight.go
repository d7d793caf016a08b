package preflight

import (
	"context"

	"cddasrc/internal/config"
	"cddasrc/internal/disc"
)

// Result reports the outcome of a single preflight check. Optional results
// never block a rip.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Options inject collaborators for tests.
type Options struct {
	// DriveStatus defaults to disc.CheckDriveStatus.
	DriveStatus disc.StatusFunc
	// LibcdioAvailable reports whether the libcdio backend was compiled in.
	LibcdioAvailable bool
}

// RunAll executes every check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	if opts.DriveStatus == nil {
		opts.DriveStatus = disc.CheckDriveStatus
	}

	results := []Result{
		CheckBackend(cfg.Device.Backend, opts.LibcdioAvailable),
		CheckDevice(cfg.Device.Path),
		CheckDrive(ctx, cfg.Device.Path, opts.DriveStatus),
		CheckOutputDir("Output directory", cfg.Paths.OutputDir),
		CheckOutputDir("Catalog directory", parentDir(cfg.Paths.CatalogPath)),
		CheckOutputDir("Lock directory", cfg.Device.LockDir),
	}
	results = append(results, CheckBinaries()...)
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
