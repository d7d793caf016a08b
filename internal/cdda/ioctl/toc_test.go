package ioctl

import (
	"errors"
	"testing"

	"cddasrc/internal/cdda"
)

func TestModeFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   cdda.DiscMode
	}{
		{cdsAudio, cdda.ModeAudio},
		{cdsMixed, cdda.ModeMixed},
		{cdsData1, cdda.ModeData},
		{cdsData2, cdda.ModeData},
		{cdsXA21, cdda.ModeXA},
		{cdsXA22, cdda.ModeXA},
		{cdsNoDisc, cdda.ModeNoDisc},
		{cdsTrayOpen, cdda.ModeNoDisc},
		{0, cdda.ModeUnknown},
	}
	for _, tt := range tests {
		if got := modeFromStatus(tt.status); got != tt.want {
			t.Errorf("modeFromStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestTOCSectorsUseNextStartAndLeadOut(t *testing.T) {
	disc := &toc{
		first: 1,
		last:  3,
		entries: []tocEntry{
			{track: 1, lsn: 0},
			{track: 2, lsn: 1000, data: true},
			{track: 3, lsn: 3000},
		},
		leadOut: 4500,
	}
	wantSectors := map[int]int{1: 1000, 2: 2000, 3: 1500, 4: 0, 0: 0}
	for track, want := range wantSectors {
		if got := disc.sectors(track); got != want {
			t.Errorf("sectors(%d) = %d, want %d", track, got, want)
		}
	}
	if disc.isAudio(2) || !disc.isAudio(3) || disc.isAudio(9) {
		t.Error("audio flags wrong")
	}
	if disc.start(3) != 3000 {
		t.Errorf("start(3) = %d", disc.start(3))
	}
	var missing *toc
	if missing.sectors(1) != 0 || missing.isAudio(1) {
		t.Error("nil toc should report nothing")
	}
}

func TestReadTOCCommand(t *testing.T) {
	cdb := readTOCCommand(0x1234)
	if len(cdb) != 10 || cdb[0] != 0x43 || cdb[2] != 0x05 || cdb[7] != 0x12 || cdb[8] != 0x34 {
		t.Fatalf("unexpected CDB % x", cdb)
	}
}

func TestCDTextLength(t *testing.T) {
	n, err := cdTextLength([]byte{0x00, 0x26, 0x00, 0x00})
	if err != nil || n != 0x28 {
		t.Fatalf("cdTextLength = %d, %v", n, err)
	}
	if _, err := cdTextLength([]byte{0x00, 0x02, 0, 0}); !errors.Is(err, cdda.ErrUnsupported) {
		t.Fatalf("empty CD-TEXT error = %v", err)
	}
	if _, err := cdTextLength([]byte{0}); err == nil {
		t.Fatal("expected error for short header")
	}
}
