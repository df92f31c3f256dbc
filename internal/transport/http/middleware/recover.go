package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/mandalnilabja/roboadmin/internal/failure"
	"github.com/mandalnilabja/roboadmin/internal/transport/http/handler/shared"
)

// ErrorPath is where HTML requests land after a recovered panic.
const ErrorPath = "/error"

// Recover turns handler panics into a recorded failure. API callers get a
// JSON 500, browsers are redirected to the error page.
func Recover(rec *failure.Recorder, logger *slog.Logger, onPanic func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				requestID := GetRequestID(r.Context())
				message := fmt.Sprint(v)
				rec.Record(failure.Failure{
					Message:   message,
					Detail:    string(debug.Stack()),
					RequestID: requestID,
					Path:      r.URL.Path,
				})
				logger.Error("panic recovered",
					"error", message,
					"path", r.URL.Path,
					"request_id", requestID,
				)
				if onPanic != nil {
					onPanic()
				}

				if strings.HasPrefix(r.URL.Path, "/api/") {
					shared.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
					return
				}
				http.Redirect(w, r, ErrorPath, http.StatusSeeOther)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
