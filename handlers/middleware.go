package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// UploadLimitMiddleware caps the request body of import uploads and rejects
// anything that is not a multipart form before the handler parses it.
func UploadLimitMiddleware(maxBytes int64) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ct := e.Request.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "multipart/form-data") {
			return respondError(e, http.StatusUnsupportedMediaType, "Upload the file as multipart/form-data")
		}
		if e.Request.ContentLength > maxBytes {
			log.Printf("middleware: rejected %d byte upload (limit %d)", e.Request.ContentLength, maxBytes)
			return respondError(e, http.StatusRequestEntityTooLarge, "File is too large")
		}
		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, maxBytes)
		return e.Next()
	}
}
