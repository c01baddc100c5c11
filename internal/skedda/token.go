package skedda

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/skedda-booker/internal/internaltypes"
)

var ErrTokenNotFound = errors.New("request verification token not found")

// DiscoverToken loads the venue page with the session cookies and scrapes the
// anti-forgery token the web app embeds in it.
func (s *Session) DiscoverToken(ctx context.Context) (string, error) {
	status, body, err := s.do(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", internaltypes.ErrAuthExpired
	default:
		return "", &StatusError{Op: "load venue page", Code: status}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var token string
	doc.Find(`input[name="__RequestVerificationToken"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		v, _ := sel.Attr("value")
		token = strings.TrimSpace(v)
		return token == ""
	})
	if token != "" {
		return token, nil
	}
	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		content, _ := sel.Attr("content")
		if token == "" && (name == "csrf-token" || name == "request-verification-token") {
			token = strings.TrimSpace(content)
		}
	})
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}
