package openai

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/httpclient"
)

// mediaRejections are fragments of the error messages the service returns
// when it cannot use the uploaded file.
var mediaRejections = []string{
	"invalid file format",
	"unsupported file",
	"file format",
	"could not be decoded",
	"audio file",
	"invalid file",
}

// mapError converts a client failure into UNAUTHORIZED, UNSUPPORTED_MEDIA
// or SERVICE_ERROR, keeping the remote body in the details.
func mapError(err error) *errors.AppError {
	var e *httpclient.Error
	if stderrors.As(err, &e) {
		switch {
		case e.StatusCode == http.StatusRequestEntityTooLarge:
			return errors.UnsupportedMedia("file exceeds the upload limit").
				WithCause(err).
				WithDetail("status", e.StatusCode).
				WithDetail("body", e.RemoteMessage())
		case (e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnsupportedMediaType) && isMediaRejection(e.RemoteMessage()):
			return errors.UnsupportedMedia(e.RemoteMessage()).
				WithCause(err).
				WithDetail("status", e.StatusCode).
				WithDetail("body", e.RemoteMessage())
		}
	}
	return errors.From(httpclient.ToAppError(err, serviceName))
}

func isMediaRejection(msg string) bool {
	msg = strings.ToLower(msg)
	for _, frag := range mediaRejections {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
