// Package process runs external tools, ffmpeg above all, as subprocesses.
//
// Run executes to completion and captures output. Start launches a
// long-running process, such as a microphone capture, that is later ended
// with Stop; the child receives SIGINT so it can finalize its output file.
// Cancelling the context sends SIGTERM to the whole process group and
// SIGKILL after the grace period.
package process
