package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	g "maragu.dev/gomponents"

	"github.com/fboessen22/jobdash/internal/view"
)

const defaultListenAddr = ":8113"

func renderHTML(w http.ResponseWriter, status int, node g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := node.Render(w); err != nil {
		slog.Error("render page", "error", err)
	}
}

// backToIndex finishes a form post with a redirect to the page.
func backToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, view.PathIndex, http.StatusSeeOther)
}

func formString(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

func formBool(r *http.Request, key string) bool {
	v := strings.ToLower(formString(r, key))
	return v == "true" || v == "1" || v == "on" || v == "yes"
}

func formInt(r *http.Request, key string) (int, error) {
	return strconv.Atoi(formString(r, key))
}

func logAction(r *http.Request, action string, err error, args ...any) {
	args = append(args, "action", action, "request_id", middleware.GetReqID(r.Context()))
	if err != nil {
		slog.Warn("dashboard action finished with errors", append(args, "error", err)...)
		return
	}
	slog.Debug("dashboard action", args...)
}
