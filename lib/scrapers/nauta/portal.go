package nauta

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
)

// Portal identifies which of the two nauta sites a page or request
// belongs to. Tokens and cookies are scoped to a single portal and must
// never cross over to the other one.
type Portal int

const (
	Connect Portal = iota
	User
)

const (
	ConnectDomain  = "secure.etecsa.net"
	ConnectBaseUrl = "https://" + ConnectDomain + ":8443"
	UserBaseUrl    = "https://www.portal.nauta.cu"

	// the url used to probe whether the gateway is still captive
	CheckConnectionUrl = "http://www.cubadebate.cu/"
)

func (p Portal) String() string {
	switch p {
	case Connect:
		return "connect"
	case User:
		return "user"
	}
	return "unknown"
}

func (p Portal) BaseUrl() string {
	if p == Connect {
		return ConnectBaseUrl
	}
	return UserBaseUrl
}

const userAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:97.0) Gecko/20100101 Firefox/97.0"

const DefaultTimeout = 30 * time.Second

// NewHttpClient builds a resty client with its own cookie jar. Each
// session owns exactly one of these; the two portals are different
// origins and never share a jar.
func NewHttpClient(baseUrl string) (*resty.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept-Language", "es-MX,es;q=0.8,en-US;q=0.5,en;q=0.3")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return client, nil
}

// Action describes one request against a portal: url, method, form or
// query data, and an optional timeout override. It replaces per-call
// request plumbing with a single executor (Perform).
type Action struct {
	Url     string
	Method  string
	Data    map[string]string
	Timeout time.Duration
}

type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status: %s", e.Status)
}

// Perform executes an action and returns the raw response. Timeouts are
// per request; a non-2xx status (redirects are already followed by the
// client) is a transport failure regardless of page content.
func Perform(ctx context.Context, client *resty.Client, action Action) (*resty.Response, error) {
	timeout := action.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := action.Method
	if method == "" {
		method = http.MethodGet
	}

	req := client.R().SetContext(ctx)
	if len(action.Data) > 0 {
		if method == http.MethodPost {
			req.SetFormData(action.Data)
		} else {
			req.SetQueryParams(action.Data)
		}
	}

	res, err := req.Execute(method, action.Url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return res, &StatusError{Code: res.StatusCode(), Status: res.Status()}
	}
	return res, nil
}
