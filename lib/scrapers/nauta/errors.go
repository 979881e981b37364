package nauta

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"nauta-sdk/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrInitialization   = errors.New("captive portal handshake form not found")
	ErrLogin            = errors.New("failed to login")
	ErrAlreadyConnected = errors.New("already connected")
	ErrLogout           = errors.New("failed to logout")
	ErrNotLoggedIn      = errors.New("you are not logged in")
	ErrLoadSession      = errors.New("invalid session data")
)

// PortalError is a failure the portal itself reported through the script
// banner at the end of an otherwise successful page.
type PortalError struct {
	Portal   Portal
	Messages []string
}

func (e *PortalError) Error() string {
	return fmt.Sprintf("%s portal: %s", e.Portal, strings.Join(e.Messages, "; "))
}

var (
	connectFailRegex = regexp.MustCompile(`alert\("([^"]*?)"\)`)
	userFailRegex    = regexp.MustCompile(`toastr\.error\('(.*)'\)`)
)

// the user portal prefixes aggregated errors with this fixed sentence;
// when present the individual sub-messages replace it.
const multipleErrorsPreamble = "Se han detectado algunos errores"

// CheckDocument inspects the last script block of a page for the
// portal's failure banner and returns a *PortalError when it is present.
// A page without a matching banner is a success.
func (p Portal) CheckDocument(doc *goquery.Document) error {
	script := htmlutil.LastScriptText(doc)
	if script == "" {
		return nil
	}

	switch p {
	case Connect:
		groups := connectFailRegex.FindStringSubmatch(script)
		if groups == nil {
			return nil
		}
		return &PortalError{Portal: p, Messages: []string{groups[1]}}
	case User:
		groups := userFailRegex.FindStringSubmatch(script)
		if groups == nil {
			return nil
		}
		messages := parseUserErrorFragment(groups[1])
		if len(messages) == 0 {
			return nil
		}
		return &PortalError{Portal: p, Messages: messages}
	}
	return nil
}

// the toastr argument is itself an html fragment: a li.msg_error with,
// for aggregated failures, nested li.sub-message items.
func parseUserErrorFragment(fragment string) []string {
	doc, err := htmlutil.Parse([]byte(fragment))
	if err != nil {
		return nil
	}
	message := strings.TrimSpace(doc.Find("li.msg_error").First().Text())
	if message == "" {
		return nil
	}
	if !strings.HasPrefix(message, multipleErrorsPreamble) {
		return []string{message}
	}

	var sub []string
	doc.Find("li.sub-message").Each(func(_ int, s *goquery.Selection) {
		sub = append(sub, strings.TrimSpace(s.Text()))
	})
	if len(sub) == 0 {
		return []string{message}
	}
	return sub
}
