// Package ingest sequences one audio-to-transcript run: credential check,
// normalization, frame-aligned chunking, strictly sequential transcription,
// merge in chunk order and speaker labelling.
//
// A Session owns the run state. Progress is reported through an Observer;
// SSEObserver bridges it to an sse.Broadcaster.
//
//	s := ingest.NewSession(ingest.Options{
//		Credentials: creds,
//		Normalizer:  normalizer,
//		Splitter:    splitter,
//		Transcriber: whisper,
//		CacheDir:    cacheDir,
//		Observer:    func(st ingest.State) { fmt.Println(st.Progress, st.Status) },
//	})
//	t, err := s.Run(ctx, media.Handle("meeting.m4a"))
package ingest
