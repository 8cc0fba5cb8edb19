// Gzinfo - a pure-Go package for inspecting gzip files without trusting them
//
// Abstract
//
// This library walks a gzip file member by member and reports what is
// actually there: the parsed header of every member, the exact number of
// compressed bytes each deflate stream occupies, the CRC-32 and size
// recomputed from the decompressed output next to the values stored in the
// trailer, and whether the file ends cleanly or is cut short. On top of
// those facts it offers an estimate of the compression level that produced
// each member, which is a guess and is always labelled as one.
//
//
// How to use
//
// For a file on disk, call InspectFile; it returns an Archive with one
// Member per gzip member found. For any other io.ReadSeeker, wrap it with
// NewByteReader and pass it to Assembler.Run. Several files can be
// inspected in parallel with InspectFiles; each file gets its own
// Assembler and nothing is shared between them.
//
// An Archive distinguishes two kinds of bad news:
//
//   * A structural failure (bad magic, truncated header, stream or trailer,
//     corrupt deflate data, I/O error) stops parsing. Archive.Truncated is
//     set, Archive.Err holds an *Error, and the members parsed before the
//     failure are kept.
//
//   * A checksum or size mismatch is not a failure. The member is reported
//     with IntegrityOK() == false and parsing continues with the next one.
//
//
// Command line tool
//
// This package contains a command line tool called "gzinfo", which can be
// installed with the following command:
//
//      $ go install github.com/gerbenvoshol/gzinfo/cmd/gzinfo@latest
//
// It prints a text or JSON report per file and maps the outcome to an exit
// code, so it can be used in scripts to check downloads or backups:
//
//      $ gzinfo -j backup.tar.gz
//
//
// Description of member boundaries
//
// A gzip file is a sequence of members, each a header, a raw deflate
// stream and an eight byte trailer, concatenated with no padding. Nothing
// in the header says how long the deflate stream is: the only way to find
// where it ends is to decode it. Decoding reads the file in chunks, so when
// the decoder sees the end of its stream some bytes of the last chunk have
// been read but not consumed. Those bytes are the trailer and possibly the
// start of the next member.
//
// The DecoderDriver feeds the decoder through an io.ByteReader, so the
// decoder never pulls more than it needs, and the unconsumed part of the
// last chunk is known exactly when the stream ends. The driver either seeks
// back over it, or hands it to ReadTrailer, which takes the trailer out of
// it and seeks back over the rest. Both ways leave the file positioned at
// the next member and give the same sizes; the chunk size never shows in
// the result.
package gzinfo
