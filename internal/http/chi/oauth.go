package chi

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/aidaptics/lead-relay/booking"
	"github.com/google/uuid"
)

const (
	callbackResultPath = "/api/discord-auth/callback/response"

	stateCookie = "discord_oauth_state"
	stateMaxAge = 10 * 60
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// resultPage is rendered by the callback result route
type resultPage struct {
	Title   string
	Message string
	Color   template.CSS
	Emoji   string
}

// getLogin handles GET /api/discord-auth/login: it pins a state in a cookie and sends the user to Discord
func getLogin(auth Authorizer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth == nil {
			failed := booking.Result{State: booking.Failed, FailedAt: booking.Start, Reason: booking.ReasonNotConfigured}
			http.Redirect(w, r, booking.RedirectURL(callbackResultPath, failed), http.StatusFound)
			return
		}

		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/api/discord-auth",
			MaxAge:   stateMaxAge,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, auth.AuthCodeURL(state), http.StatusFound)
	})
}

// getCallback handles GET /api/discord-auth/callback and always redirects to the result page.
// Logins started at /login must return the state they were given; links built outside the relay carry no cookie.
func getCallback(flow BookingFlow) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := booking.Result{State: booking.Failed, FailedAt: booking.Start, Reason: booking.ReasonNotConfigured}
		switch {
		case flow == nil:
		case !stateMatches(w, r):
			result.Reason = booking.ReasonState
		default:
			result = flow.Run(r.Context(), r.URL.Query().Get("code"))
		}
		http.Redirect(w, r, booking.RedirectURL(callbackResultPath, result), http.StatusFound)
	})
}

// stateMatches consumes the state cookie and compares it with the returned state
func stateMatches(w http.ResponseWriter, r *http.Request) bool {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return true
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/discord-auth", MaxAge: -1})
	return c.Value != "" && c.Value == r.URL.Query().Get("state")
}

// getCallbackResponse handles GET /api/discord-auth/callback/response
func getCallbackResponse() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page := resultPage{
			Title:   "Status",
			Message: "No status provided.",
			Color:   "#64748b",
			Emoji:   "ℹ️",
		}
		switch {
		case q.Has("success"):
			page = resultPage{
				Title:   "Success!",
				Message: "You have been given the BOOKED role. Enjoy your access!",
				Color:   "#22c55e",
				Emoji:   "✅",
			}
		case q.Has("error"):
			msg := q.Get("error")
			if msg == "" {
				msg = "There was a problem processing your request. Please try again or contact support."
			}
			page = resultPage{
				Title:   "Error",
				Message: prettyTrailingJSON(msg),
				Color:   "#ef4444",
				Emoji:   "❌",
			}
		}

		render(w, http.StatusOK, "result.html", page)
	})
}

// invalidArgs handles GET /api/discord-auth without a callback
func invalidArgs() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusBadRequest, "invalid_args.html", nil)
	})
}

func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// prettyTrailingJSON indents a JSON object ending the message, as upstream bodies often are
func prettyTrailingJSON(msg string) string {
	start := strings.Index(msg, "{")
	if start < 0 || !strings.HasSuffix(strings.TrimSpace(msg), "}") {
		return msg
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(strings.TrimSpace(msg[start:])), "", "  "); err != nil {
		return msg
	}
	return msg[:start] + "\n" + out.String()
}
