// Package frid implements frid, a compact human-oriented data format.
//
// frid is designed to be:
//   - Light to write (bare strings, no quoting for common text)
//   - Exact (arbitrary-precision integers, microsecond datetimes)
//   - Deterministic (one canonical rendering per value, Load(Dump(v))
//     returns a value equal to v)
//   - Streamable (feed fragments split at any byte, no goroutines)
//   - Ordered (dict entries keep insertion order)
//
// # Data Model
//
// Scalars: null, bool, int, real, text, blob, datetime
// Containers: list, dict (string keys, insertion order)
//
// Integers carry arbitrary precision. Datetimes carry microsecond
// resolution and are either zoned or naive (no zone attached).
//
// # Syntax
//
//	Null:      .
//	Bool:      + / -
//	Int:       42, -1_000_000, 0xff, 0o17, 0b1010
//	Real:      2.5, 1e-3; ++ / -- for infinities, +. / -. for NaN
//	Text:      bare_word, hello world, "quoted éscapes"
//	Blob:      ..base64url with trailing dots for padding
//	DateTime:  2024-01-15T093000Z, 0T1430, 0m + 11 base-36 digits
//	List:      [v1, v2, v3]
//	Dict:      {key: v1, "other key": v2}
//	Comment:   # to end of line
//
// Adjacent quoted strings concatenate. Argument lists accept
// positional values followed by name=value keywords, and registered
// constructors may be called as name(args).
//
// # Example
//
//	{
//	  id: 0mbd5cj4tzn9a,
//	  name: "Ada Lovelace",
//	  tags: [pioneer, analyst],
//	  score: 99.5,
//	  avatar: ..iVBORw0KGgo,
//	  since: 2024-01-15
//	}
//
// # Incremental Loading
//
// StreamLoader consumes the same grammar from successive fragments. A
// fragment may end anywhere, including inside a token or an escape
// sequence; the loader retires what it can and waits for more. Errors
// carry the absolute byte offset and the structural path, like /tags/1.
//
// # Ordering
//
// The 0m datetime form is eleven base-36 digits of microseconds since
// 0001-01-01T00:00:00Z, so the lexicographic order of the digits is
// the chronological order of the instants.
package frid
