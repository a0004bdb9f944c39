// Package scanner discovers source recordings in the input directory.
//
// Results are filtered by extension (case-insensitive) and sorted by relative
// path so repeated runs process recordings in the same order. Subdirectories
// are only walked when Options.Recursive is set.
package scanner
