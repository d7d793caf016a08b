// Package cdtext decodes CD-TEXT packs as returned by the MMC READ TOC/PMA/ATIP
// command (format 5).
//
// Only the first language block is read, and only title and performer packs
// are kept. Track 0 holds the album values.
package cdtext
