// Package disc interfaces with physical optical drives.
//
// It queries drive status through CDROM_DRIVE_STATUS, enumerates sr* drives
// from sysfs with the udev crawler, watches netlink for media insertion,
// serializes device access between processes with file locks, and ejects
// discs. Reading audio lives in package cdda; this package only deals with
// the drive around it.
package disc
