// Package diarization attributes transcript paragraphs to speakers.
//
// A Labeler is pluggable. The built-in RoundRobin policy assumes a
// conversation that alternates between a fixed number of speakers and labels
// paragraphs cyclically. It performs no acoustic analysis.
//
//	d := diarization.LabelSpeakers("Hello.\n\nHi there.\nHow are you?")
//	fmt.Println(d)
//	// Speaker 1: Hello.
//	//
//	// Speaker 2: Hi there.
//	//
//	// Speaker 1: How are you?
package diarization
