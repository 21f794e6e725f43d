// Package project understands the decompressed XML payload of a Premiere Pro
// project container.
//
// It finds the Project record that declares the document's format version,
// rewrites that version value in place while reproducing every other byte,
// and extracts read-only build markers for reporting. The version edit is
// purely textual: a structural XML round-trip would reorder attributes and
// normalize whitespace, which older Premiere builds then refuse to open.
package project
