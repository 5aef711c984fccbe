// Package live runs dual-language (Russian/Spanish) transcription over a
// stream of short recorded segments. Each segment is transcribed with
// language detection and translated into the other language; the resulting
// entries can be exported as one text file.
package live
