package server

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor found in an email.
type Link struct {
	Text string
	Href string
}

// Email is the last message the application sent to a user, as rendered by
// the showLastEmail endpoint.
type Email struct {
	Subject string
	Body    string
	Links   []Link
}

// LinkByText returns the href of the first link whose text contains text,
// compared case-insensitively.
func (e *Email) LinkByText(text string) (string, bool) {
	needle := strings.ToLower(text)
	for _, l := range e.Links {
		if strings.Contains(strings.ToLower(l.Text), needle) {
			return l.Href, true
		}
	}
	return "", false
}

// Contains reports whether the subject or body contains text.
func (e *Email) Contains(text string) bool {
	return strings.Contains(e.Subject, text) || strings.Contains(e.Body, text)
}

// LastEmailURL is the page showing the last email sent to username.
func (c *Client) LastEmailURL(username string) string {
	return c.URL("seleniumTests", "showLastEmail", username)
}

// LastEmail fetches and parses the last email sent to username.
func (c *Client) LastEmail(ctx context.Context, username string) (*Email, error) {
	body, err := c.get(ctx, c.LastEmailURL(username))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last email for %s: %w", username, err)
	}
	email, err := ParseEmail(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last email for %s: %w", username, err)
	}
	return email, nil
}

// ParseEmail extracts subject, text and links from an email page. The subject
// comes from <title>, or the first heading when the title is empty.
func ParseEmail(page []byte) (*Email, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	email := &Email{Subject: collapse(doc.Find("title").First().Text())}
	if email.Subject == "" {
		email.Subject = collapse(doc.Find("h1, h2, h3").First().Text())
	}
	email.Body = collapse(doc.Find("body").Text())

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		email.Links = append(email.Links, Link{Text: collapse(s.Text()), Href: strings.TrimSpace(href)})
	})
	return email, nil
}

// collapse trims s and folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
