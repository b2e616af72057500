// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"dndbuilder/internal/logger"
	"dndbuilder/internal/respond"
)

// Recoverer turns a handler panic into a logged JSON 500. When the handler
// already started the response only the log entry is written.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			logger.FromContext(r.Context()).Error("handler panicked",
				zap.Any("panic", rec),
				zap.String("route", r.Method+" "+r.URL.Path),
				zap.Bool("response_started", rw.written),
				zap.ByteString("stack", debug.Stack()),
			)
			if !rw.written {
				respond.Status(rw, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(rw, r)
	})
}
