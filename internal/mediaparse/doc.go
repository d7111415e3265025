// Package mediaparse turns release-style media filenames into a Guess: the
// title, year, and season/episode numbers the matcher searches the catalog
// with. Two parser engines are available, selected by name from
// configuration; both produce the same Guess shape.
package mediaparse
