// Package sse streams job events to HTTP clients as Server-Sent Events.
//
// A Hub routes events to connected clients whose id matches a glob
// pattern. Client ids take the form "job:<job id>:<connection id>", so a
// publisher reaches every listener of one job with JobPattern(id).
//
//	hub := sse.NewHub(log)
//	go hub.Run()
//	hub.Publish(sse.JobPattern(id), sse.Event{Type: sse.EventTypeProgress, Data: state})
package sse
