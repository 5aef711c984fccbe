// Package chunk splits normalized MP3 media into parts that fit the
// transcription service's upload limit.
//
// FrameSplitter scans MPEG audio frame headers with github.com/tcolgate/mp3
// and only cuts on frame starts, so every chunk is a playable MP3 stream on
// its own. Concatenating the chunks in index order reproduces the source
// byte for byte.
package chunk
