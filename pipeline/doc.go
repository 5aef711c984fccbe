// Package pipeline provides lazy, pull-based stream operators. Live
// transcription is built on it: recorded segments are pulled from a source,
// transcribed and translated with Map, empty results dropped with Filter and
// the entries delivered with ForEach.
//
// Nothing runs until a terminal (Collect, Drain, ForEach) pulls values, so a
// slow stage naturally holds back the stage before it. Buffer decouples the
// two with a bounded channel when the producer must not stall, e.g. while an
// ffmpeg capture keeps writing segments.
//
//	src := pipeline.From[media.Handle](segments)
//	entries := pipeline.Map(src, session.handle)
//	entries = pipeline.Filter(entries, live.Entry.Valid)
//	err := pipeline.ForEach(ctx, entries, emit)
package pipeline
