// Package api exposes the transcription pipeline over HTTP.
//
//	POST   /api/v1/transcriptions             start a job (multipart "file" or JSON {"url"})
//	GET    /api/v1/transcriptions/:id         job state and result
//	GET    /api/v1/transcriptions/:id/events  progress as server-sent events
//	DELETE /api/v1/transcriptions/:id         cancel a job
//	POST   /api/v1/translate                  {"text", "target_language"}
//	POST   /api/v1/summarize                  {"text"}
//	POST   /api/v1/exports                    {"text", "kind"}
//	GET    /api/v1/credential                 whether a key is configured
//	PUT    /api/v1/credential                 {"api_key"}
//	DELETE /api/v1/credential
//
// One job runs at a time; starting another while it is active returns 409.
package api
