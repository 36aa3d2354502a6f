package security

import (
	"net/http"

	"github.com/hubooks/reading-service/internal/domain"
)

const SessionCookieName = "hu_session"

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSessionCookie and ClearSessionCookie must emit the same attribute set,
// otherwise browsers keep the old cookie around.
func SetSessionCookie(w http.ResponseWriter, token string) {
	c := sessionCookie()
	c.Value = token
	c.MaxAge = int(domain.SessionTTL.Seconds())
	http.SetCookie(w, c)
}

func ClearSessionCookie(w http.ResponseWriter) {
	c := sessionCookie()
	c.MaxAge = -1
	http.SetCookie(w, c)
}

func sessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
