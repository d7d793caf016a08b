// Package bus delivers tag, error, and warning messages from the CD source to
// whoever is listening.
//
// Producers post typed messages (TagMessage, ErrorMessage, WarningMessage);
// consumers subscribe per topic. A nil *Bus is a valid sink that discards
// everything, which keeps producer code free of nil checks.
package bus
