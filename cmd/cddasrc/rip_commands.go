package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"cddasrc/internal/bus"
	"cddasrc/internal/cdda/libcdio"
	"cddasrc/internal/disc"
	"cddasrc/internal/preflight"
	"cddasrc/internal/rip"
	"cddasrc/internal/stream"
)

type ripOptions struct {
	tracks    []int
	format    string
	output    string
	wait      bool
	eject     bool
	skipCheck bool
	asJSON    bool
}

func newRipCommand(ctx *commandContext) *cobra.Command {
	var opts ripOptions
	cmd := &cobra.Command{
		Use:   "rip",
		Short: "Rip audio tracks to WAV or FLAC files",
		Example: `  cddasrc rip
  cddasrc rip --track 1,3 --format flac
  cddasrc rip --device /dev/sr1 --output ~/Music/single --eject`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRip(cmd, ctx, opts)
		},
	}
	cmd.Flags().IntSliceVarP(&opts.tracks, "track", "t", nil, "Track numbers to rip (default: every audio track)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: wav or flac (default: rip.format)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Album directory (default: under paths.output_dir)")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "Wait for the drive to report a disc before ripping")
	cmd.Flags().BoolVar(&opts.eject, "eject", false, "Eject the disc after a successful rip")
	cmd.Flags().BoolVar(&opts.skipCheck, "skip-checks", false, "Rip even if preflight checks fail")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runRip(cmd *cobra.Command, ctx *commandContext, opts ripOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	runCtx := commandCtx(cmd)
	stderr := cmd.ErrOrStderr()

	if !opts.skipCheck {
		results := preflight.RunAll(runCtx, cfg, preflight.Options{
			DriveStatus:      ctx.statusFunc(),
			LibcdioAvailable: libcdio.Available,
		})
		if failed := preflight.Failed(results); len(failed) > 0 {
			renderChecks(stderr, "Failed checks", failed, shouldColorize(stderr))
			return rip.Wrap(rip.ErrValidation, "preflight", "", "required checks failed (see cddasrc status)", nil)
		}
	}

	device := ctx.device()
	if opts.wait && device != "" {
		fmt.Fprintf(stderr, "Waiting for a disc in %s...\n", device)
		if _, err := disc.WaitForReady(runCtx, device, disc.WaitOptions{Check: ctx.statusFunc()}); err != nil {
			return rip.Wrap(rip.ErrDevice, "", "wait for disc", "", err)
		}
	}

	result, err := ripOnce(cmd, ctx, rip.Request{
		Device:    device,
		Tracks:    opts.tracks,
		Format:    opts.format,
		OutputDir: opts.output,
	})
	if err != nil {
		return err
	}

	if opts.eject {
		if err := disc.NewEjector().Eject(runCtx, result.Device); err != nil {
			fmt.Fprintf(stderr, "warning: eject failed: %v\n", err)
		}
	}
	return writeOutput(cmd, opts.asJSON, result, func() string { return renderRipResult(result) })
}

// ripOnce runs one rip with the catalog and progress output attached. The
// watch command reuses it for every inserted disc.
func ripOnce(cmd *cobra.Command, ctx *commandContext, req rip.Request) (*rip.Result, error) {
	driver, err := ctx.driver()
	if err != nil {
		return nil, err
	}
	store, err := ctx.openCatalog()
	if err != nil {
		return nil, rip.Wrap(rip.ErrOutput, "", "open catalog", "", err)
	}
	defer store.Close()

	stderr := cmd.ErrOrStderr()
	b := ctx.eventBus()
	if unsubscribe, err := b.OnWarning(func(msg bus.WarningMessage) {
		fmt.Fprintf(stderr, "warning: %s\n", msg.Message)
	}); err == nil {
		defer unsubscribe()
		defer b.Wait()
	}

	req.Progress = newProgressPrinter(stderr, shouldColorize(stderr)).update
	ripper := rip.NewRipper(ctx.configValue(), driver, ctx.log(), rip.WithCatalog(store), rip.WithBus(b))
	return ripper.Rip(commandCtx(cmd), req)
}

// progressPrinter redraws one line per track on a terminal and prints only
// finished tracks otherwise.
type progressPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	live bool
}

func newProgressPrinter(w io.Writer, live bool) *progressPrinter {
	return &progressPrinter{w: w, live: live}
}

func (p *progressPrinter) update(pr rip.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	label := fmt.Sprintf("Track %02d (%d/%d)", pr.Track, pr.Index, pr.Count)
	switch {
	case pr.Finished && p.live:
		fmt.Fprintf(p.w, "\r%s %s done\n", label, progressBar(100))
	case pr.Finished:
		fmt.Fprintf(p.w, "%s done, %d sectors, %d retries\n", label, pr.Sectors, pr.Retries)
	case p.live:
		fmt.Fprintf(p.w, "\r%s %s %5.1f%%", label, progressBar(pr.Percent), pr.Percent)
	}
}

func progressBar(percent float64) string {
	const width = 30
	filled := int(percent / 100 * width)
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func renderRipResult(result *rip.Result) string {
	rows := make([][]string, 0, len(result.Files))
	for _, f := range result.Files {
		rows = append(rows, []string{
			strconv.Itoa(f.Track),
			formatMSF(f.Sectors),
			strconv.Itoa(f.Retries),
			f.Path,
		})
	}
	var b strings.Builder
	b.WriteString(tableSpec{
		headers: []string{"#", "Length", "Retries", "File"},
		aligns:  []columnAlignment{alignRight, alignRight, alignRight},
		rows:    rows,
	}.render())
	fmt.Fprintf(&b, "\nRipped %d track(s) as %s to %s in %s", len(result.Files), result.Format, result.Dir, result.Elapsed.Round(10*time.Millisecond))
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "\nwarning: %s", w)
	}
	return b.String()
}

func newCatCommand(ctx *commandContext) *cobra.Command {
	var (
		wholeDisc bool
		output    string
	)
	cmd := &cobra.Command{
		Use:   "cat [cdda://[device#]track]",
		Short: "Write raw PCM of a track or the whole disc",
		Long: `Write raw little-endian 16-bit stereo 44.1 kHz PCM to stdout or a file.
Without an argument track 1 of the selected device is streamed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			streamOpts := stream.Options{
				Retries: cfg.Rip.ReadRetries,
				Logger:  ctx.log(),
				Context: commandCtx(cmd),
			}

			var reader *stream.Reader
			switch {
			case wholeDisc:
				if len(args) > 0 {
					return rip.Wrap(rip.ErrValidation, "", "cat", "--disc takes no URI", nil)
				}
				if err := session.Open(""); err != nil {
					return rip.Wrap(rip.ErrDevice, "", "open disc", "", err)
				}
				streamOpts.Mode = stream.ModeDisc
				reader, err = stream.NewReader(session, streamOpts)
				if err != nil {
					_ = session.Close()
				}
			default:
				uri := stream.URI{Track: 1}.String()
				if len(args) > 0 {
					uri = args[0]
				}
				reader, err = stream.Open(session, uri, streamOpts)
			}
			if err != nil {
				return streamError(err)
			}
			defer session.Close()
			defer reader.Close()

			var dst io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return rip.Wrap(rip.ErrOutput, "", "cat", "", err)
				}
				defer f.Close()
				dst = f
			}
			if _, err := io.Copy(dst, reader); err != nil {
				return rip.Wrap(rip.ErrDevice, "", "cat", "", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wholeDisc, "disc", false, "Stream every audio track back to back")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

// streamError classifies reader setup failures: a bad URI or track is a
// usage error, anything else came from the drive.
func streamError(err error) error {
	for _, usage := range []error{stream.ErrInvalidURI, stream.ErrNoSuchTrack, stream.ErrDataTrack, stream.ErrNoTracks} {
		if errors.Is(err, usage) {
			return rip.Wrap(rip.ErrValidation, "", "cat", "", err)
		}
	}
	return rip.Wrap(rip.ErrDevice, "", "cat", "", err)
}
