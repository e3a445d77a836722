package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"
)

// Every form posts back the value of the form cookie in formTokenField.
// A cross-site page can make the browser send the cookie but cannot read
// it, so it cannot fill in the field.
const (
	formTokenCookie = "blogger_form"
	formTokenField  = "csrf_token"
	formTokenTTL    = 12 * time.Hour
)

func newFormToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// formToken returns the token pages embed in their forms, issuing the
// cookie on first visit.
func (b *Blog) formToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(formTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	token, err := newFormToken()
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     formTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   b.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(formTokenTTL.Seconds()),
	})
	return token
}

// readForm parses the posted form and rejects it with 403 unless it carries
// the form cookie's token.
func readForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}

	c, err := r.Cookie(formTokenCookie)
	posted := r.PostFormValue(formTokenField)
	if err != nil || c.Value == "" || posted == "" ||
		subtle.ConstantTimeCompare([]byte(c.Value), []byte(posted)) != 1 {
		http.Error(w, "Invalid form token", http.StatusForbidden)
		return false
	}
	return true
}

// requireAuth sends visitors without a session to the login page.
func (b *Blog) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !b.store.Auth().IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
