package cdda

import "time"

// Red Book audio constants.
const (
	SectorSize       = 2352
	SectorsPerSecond = 75
	SampleRate       = 44100
	Channels         = 2
	BitsPerSample    = 16
	BytesPerFrame    = Channels * BitsPerSample / 8
	SamplesPerSector = SectorSize / BytesPerFrame
	// PregapSectors is the two second offset between LSN and LBA.
	PregapSectors = 150
)

// LBA converts a logical sector number to a logical block address.
func LBA(lsn int) int { return lsn + PregapSectors }

// LSN converts a logical block address to a logical sector number.
func LSN(lba int) int { return lba - PregapSectors }

// SectorsDuration returns the playing time of n sectors.
func SectorsDuration(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / SectorsPerSecond
}

// MSF formats a sector count as minutes:seconds:frames.
type MSF struct {
	Minutes int
	Seconds int
	Frames  int
}

// ToMSF splits n sectors into minutes, seconds, and frames.
func ToMSF(n int) MSF {
	if n < 0 {
		n = 0
	}
	return MSF{
		Minutes: n / (60 * SectorsPerSecond),
		Seconds: (n / SectorsPerSecond) % 60,
		Frames:  n % SectorsPerSecond,
	}
}
