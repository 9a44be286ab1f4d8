package api

import "net/http"

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
	wroteHeader  bool
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (lrw *loggingResponseWriter) WriteHeader(statusCode int) {
	if lrw.wroteHeader {
		return
	}
	lrw.wroteHeader = true
	lrw.statusCode = statusCode
	lrw.ResponseWriter.WriteHeader(statusCode)
}

func (lrw *loggingResponseWriter) Write(data []byte) (int, error) {
	lrw.wroteHeader = true
	size, err := lrw.ResponseWriter.Write(data)
	lrw.responseSize += size
	return size, err
}

func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

// headerWritten reports whether a response has already started on w.
func headerWritten(w http.ResponseWriter) bool {
	lrw, ok := w.(*loggingResponseWriter)
	return ok && lrw.wroteHeader
}
