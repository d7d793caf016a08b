package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cddasrc/internal/catalog"
	"cddasrc/internal/rip"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect previously ripped discs",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ripped discs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return rip.Wrap(rip.ErrOutput, "", "open catalog", "", err)
			}
			defer store.Close()

			discs, err := store.ListDiscs(commandCtx(cmd))
			if err != nil {
				return err
			}
			if discs == nil {
				discs = []catalog.Disc{}
			}
			return writeOutput(cmd, asJSON, discs, func() string {
				if len(discs) == 0 {
					return "Catalog is empty"
				}
				rows := make([][]string, 0, len(discs))
				for _, d := range discs {
					rows = append(rows, []string{
						d.MusicBrainzID,
						d.CDDBID,
						d.Artist,
						d.Title,
						strconv.Itoa(d.TrackCount),
						d.RippedAt.Local().Format(time.DateTime),
					})
				}
				return tableSpec{
					headers:  []string{"MusicBrainz ID", "CDDB", "Artist", "Title", "Tracks", "Ripped"},
					aligns:   []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
					rows:     rows,
					maxWidth: 32,
				}.render()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <musicbrainz-id>",
		Short: "Show one ripped disc and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return rip.Wrap(rip.ErrOutput, "", "open catalog", "", err)
			}
			defer store.Close()

			d, err := store.LookupByMusicBrainz(commandCtx(cmd), args[0])
			if err != nil {
				return err
			}
			if d == nil {
				return rip.Wrap(rip.ErrValidation, "", "catalog show", fmt.Sprintf("no disc with MusicBrainz ID %q", args[0]), nil)
			}
			return writeOutput(cmd, asJSON, d, func() string { return renderCatalogDisc(d) })
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderCatalogDisc(d *catalog.Disc) string {
	title := d.MusicBrainzID
	if d.Artist != "" || d.Title != "" {
		title = fmt.Sprintf("%s - %s (%s)", d.Artist, d.Title, d.MusicBrainzID)
	}
	header := fmt.Sprintf("%s\nCDDB %s, ripped %s from %s", title, d.CDDBID, d.RippedAt.Local().Format(time.DateTime), d.Device)

	rows := make([][]string, 0, len(d.Tracks))
	for _, t := range d.Tracks {
		path := t.Path
		if path == "" {
			path = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(t.Number),
			formatMSF(t.End - t.Start + 1),
			t.Title,
			path,
		})
	}
	return header + "\n" + tableSpec{
		headers: []string{"#", "Length", "Title", "File"},
		aligns:  []columnAlignment{alignRight, alignRight},
		rows:    rows,
	}.render()
}
