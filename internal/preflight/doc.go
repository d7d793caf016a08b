// Package preflight provides readiness checks for the drive and the
// filesystem paths cddasrc writes to.
//
// These checks run in two contexts:
//   - The rip command calls RunAll before opening the disc and refuses to
//     start when a required check fails.
//   - The CLI "cddasrc status" command renders every result, including the
//     optional ones, as a health table.
package preflight
