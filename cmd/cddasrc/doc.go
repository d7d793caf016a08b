// Package main hosts the cddasrc CLI entrypoint and command graph.
//
// The Cobra command tree lists drives, prints tables of contents and disc
// IDs, rips tracks to WAV or FLAC, streams raw PCM, watches for inserted
// discs, and manages the catalog and configuration. Configuration loading,
// backend selection, and logger setup live in commandContext so subcommands
// only deal with their own flags and output.
package main
