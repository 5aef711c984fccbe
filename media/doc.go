// Package media turns user-supplied audio or video into the mono 16 kHz MP3
// the transcription service accepts.
//
// A Handle is a path the pipeline reads but never owns. Normalization writes
// a derived file next to the other cache artifacts and leaves the input
// untouched:
//
//	n := media.NewFFmpegNormalizer(media.FFmpegConfig{}, cacheDir, nil, log)
//	out, err := n.Normalize(ctx, media.Handle("/recordings/meeting.m4a"))
//	// out.Handle == cacheDir + "/converted-meeting.mp3"
//
// The output path is deterministic per input name and is overwritten on each
// call. Remote media is fetched into the cache with a Downloader first.
package media
