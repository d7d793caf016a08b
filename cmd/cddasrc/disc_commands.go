package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cddasrc/internal/cdda"
	"cddasrc/internal/disc"
	"cddasrc/internal/discid"
	"cddasrc/internal/rip"
)

type deviceView struct {
	Path    string `json:"path"`
	Default bool   `json:"default"`
	Status  string `json:"status"`
}

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List CD drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.newSession()
			if err != nil {
				return err
			}
			def := session.DefaultDevice()
			status := ctx.statusFunc()

			var views []deviceView
			for _, dev := range session.ProbeDevices() {
				v := deviceView{Path: dev, Default: dev == def, Status: "unavailable"}
				if st, err := status(dev); err == nil {
					v.Status = st.String()
				}
				views = append(views, v)
			}
			if views == nil {
				views = []deviceView{}
			}
			return writeOutput(cmd, asJSON, views, func() string {
				if len(views) == 0 {
					return "No CD drives found"
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{v.Path, yesNo(v.Default), v.Status})
				}
				return renderTable([]string{"Device", "Default", "Status"}, rows, nil)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type tocView struct {
	Device       string       `json:"device"`
	Mode         string       `json:"mode"`
	Artist       string       `json:"artist,omitempty"`
	Title        string       `json:"title,omitempty"`
	IDs          discid.IDs   `json:"ids"`
	Tracks       []cdda.Track `json:"tracks"`
	AudioSectors int          `json:"audio_sectors"`
}

func newTOCCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Print the table of contents of the inserted disc",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			tracks, err := session.EnumerateTracks()
			if err != nil {
				return rip.Wrap(rip.ErrDevice, "", "read toc", "", err)
			}
			view := tocView{
				Device: session.Device(),
				Mode:   session.Mode().String(),
				IDs:    session.IDs(),
				Tracks: tracks,
			}
			if text := session.Text(); text != nil {
				view.Artist = text.Album.Performer
				view.Title = text.Album.Title
			}
			for _, t := range cdda.AudioTracks(tracks) {
				view.AudioSectors += t.Sectors()
			}
			return writeOutput(cmd, asJSON, view, func() string { return renderTOC(view) })
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func renderTOC(view tocView) string {
	header := fmt.Sprintf("%s (%s)", view.Device, view.Mode)
	if view.Artist != "" || view.Title != "" {
		header += fmt.Sprintf("\n%s - %s", view.Artist, view.Title)
	}
	rows := make([][]string, 0, len(view.Tracks))
	for _, t := range view.Tracks {
		kind := "audio"
		if !t.IsAudio {
			kind = "data"
		}
		rows = append(rows, []string{
			strconv.Itoa(t.Number),
			kind,
			strconv.Itoa(t.Start),
			strconv.Itoa(t.End),
			strconv.Itoa(t.Sectors()),
			formatMSF(t.Sectors()),
			t.Artist(),
			t.Title(),
		})
	}
	table := tableSpec{
		headers:  []string{"#", "Type", "Start", "End", "Sectors", "Length", "Artist", "Title"},
		aligns:   []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
		rows:     rows,
		footer:   []string{"", "", "", "", strconv.Itoa(view.AudioSectors), formatMSF(view.AudioSectors)},
		maxWidth: 40,
	}
	return header + "\n" + table.render()
}

// formatMSF renders a sector count as mm:ss.ff, ff being 1/75 s frames.
func formatMSF(sectors int) string {
	msf := cdda.ToMSF(sectors)
	return fmt.Sprintf("%02d:%02d.%02d", msf.Minutes, msf.Seconds, msf.Frames)
}

func newDiscIDCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "discid",
		Short: "Print the CDDB and MusicBrainz identifiers of the inserted disc",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.openSession()
			if err != nil {
				return err
			}
			defer session.Close()

			ids := session.IDs()
			return writeOutput(cmd, asJSON, ids, func() string {
				rows := [][]string{
					{"CDDB", ids.CDDB},
					{"CDDB (full)", ids.CDDBFull},
					{"MusicBrainz", ids.MusicBrainz},
					{"MusicBrainz TOC", ids.MusicBrainzTOC},
				}
				return renderTable([]string{"Identifier", "Value"}, rows, nil)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newEjectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eject",
		Short: "Eject the disc",
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := ctx.resolvedDevice()
			if err != nil {
				return rip.Wrap(rip.ErrDevice, "", "eject", "", err)
			}
			cfg := ctx.configValue()
			lock := disc.NewDeviceLock(cfg.Device.LockDir, device)
			if err := lock.TryLock(); err != nil {
				return rip.Wrap(rip.ErrDevice, "", "eject", "drive is busy with a rip", err)
			}
			defer lock.Unlock()

			ejectCtx, cancel := contextWithTimeout(cmd, 30*time.Second)
			defer cancel()
			if err := disc.NewEjector().Eject(ejectCtx, device); err != nil {
				return rip.Wrap(rip.ErrDevice, "", "eject", "", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ejected %s\n", device)
			return nil
		},
	}
}
