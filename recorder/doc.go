// Package recorder captures microphone audio with ffmpeg. A Recorder hands
// out one recording at a time: either a single file (Start) for the batch
// pipeline or rolling segment files (Segmented) for live mode.
package recorder
