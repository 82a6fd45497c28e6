// Package sgf inspects and edits saved-game containers: tar-family archives,
// optionally wrapped in a compression filter, whose members hold a game's
// saved state.
//
// Every operation streams the container entry by entry and never holds the
// whole archive in memory.
//
//	names, err := sgf.ListEntries("save.sgf")
//	data, err := sgf.ExtractEntry("save.sgf", "game.json")
//	report, err := sgf.RewriteEntry("save.sgf", "edited.sgf", "game.json", newData)
//
// # Filters and formats
//
// Input containers may be plain tar or tar compressed with gzip, bzip2, xz,
// zstd or lz4; the filter is detected from the stream. Output containers are
// always bzip2-compressed GNU tar, whatever the input used.
//
// # Missing entries
//
// A missing entry is not an error. ExtractEntry returns an empty buffer and
// RewriteEntry produces an unmodified copy. Use ListEntries to tell a missing
// entry apart from an empty one.
//
// # Failed rewrites
//
// A rewrite that fails part way leaves the partially written output in
// place. The output of a failed RewriteEntry must not be used.
package sgf
