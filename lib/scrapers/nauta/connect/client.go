package connect

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"nauta-sdk/lib/htmlutil"
	"nauta-sdk/lib/scrapers/nauta"
	"nauta-sdk/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/nauta/connect")

// Client drives the captive gateway from "captive" to "open" and back.
// It owns the connect portal's cookie jar and tokens; nothing here is
// ever sent to the user portal.
type Client struct {
	BaseUrl  string
	CheckUrl string
	http     *resty.Client

	username string
	password string

	// tokens harvested from the handshake; attributeUuid only exists
	// after a successful login and is the sole evidence of being logged
	// in (the portal offers no confirmation call).
	csrfHw        string
	wlanUserIp    string
	actionLogin   string
	attributeUuid string
}

type ClientOptions struct {
	// defaults to the production portal
	BaseUrl string
	// the external page probed to detect captivity, defaults to
	// nauta.CheckConnectionUrl
	CheckUrl string

	Username string
	Password string
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = nauta.ConnectBaseUrl
	}
	checkUrl := opts.CheckUrl
	if checkUrl == "" {
		checkUrl = nauta.CheckConnectionUrl
	}

	client, err := nauta.NewHttpClient(baseUrl)
	if err != nil {
		return nil, err
	}
	telemetry.InstrumentResty(client, "scrapers/nauta/connect/http")

	return &Client{
		BaseUrl:  baseUrl,
		CheckUrl: checkUrl,
		http:     client,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// LoggedIn reports whether a connection attribute token is held. The
// portal conflates "logged in" with "token present"; there is no
// independent check.
func (c *Client) LoggedIn() bool {
	return c.attributeUuid != ""
}

// IsConnected probes an external page through the gateway. While
// captive, the gateway answers in place of the real site.
func (c *Client) IsConnected(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:IsConnected")
	defer span.End()

	res, err := nauta.Perform(ctx, c.http, nauta.Action{Url: c.CheckUrl})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch check page")
		return false, err
	}
	return !strings.Contains(res.String(), nauta.ConnectDomain), nil
}

// init performs the two-step landing handshake: the landing form relays
// the client's identity to the portal, whose answer carries the login
// form with the CSRFHW token.
func (c *Client) init(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:init")
	defer span.End()

	res, err := nauta.Perform(ctx, c.http, nauta.Action{Url: c.CheckUrl})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch landing page")
		return err
	}
	doc, err := htmlutil.Parse(res.Body())
	if err != nil {
		return err
	}
	landing := htmlutil.FirstForm(doc, "")
	if landing == nil {
		span.SetStatus(codes.Error, "landing form not found")
		return fmt.Errorf("%w: landing form", nauta.ErrInitialization)
	}

	res, err = nauta.Perform(ctx, c.http, nauta.Action{
		Url:    landing.Action,
		Method: http.MethodPost,
		Data:   landing.Fields,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to relay landing form")
		return err
	}
	doc, err = htmlutil.Parse(res.Body())
	if err != nil {
		return err
	}
	login := htmlutil.FirstForm(doc, "form#formulario")
	if login == nil {
		span.SetStatus(codes.Error, "login form not found")
		return fmt.Errorf("%w: login form", nauta.ErrInitialization)
	}

	c.csrfHw = login.Fields["CSRFHW"]
	c.wlanUserIp = login.Fields["wlanuserip"]
	if c.wlanUserIp == "" {
		c.wlanUserIp = landing.Fields["wlanuserip"]
	}
	c.actionLogin = login.Action
	return nil
}

var attributeUuidRegex = regexp.MustCompile(`ATTRIBUTE_UUID=(\w+)&CSRFHW=`)

// Connect logs into the captive portal and opens the connection. The
// attribute token embedded in the response script is the only proof of
// success.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Connect")
	defer span.End()

	if c.LoggedIn() {
		span.SetStatus(codes.Error, nauta.ErrAlreadyConnected.Error())
		return fmt.Errorf("%w: %w", nauta.ErrLogin, nauta.ErrAlreadyConnected)
	}
	if c.username == "" || c.password == "" {
		span.SetStatus(codes.Error, "missing credentials")
		return fmt.Errorf("%w: username and password are required", nauta.ErrLogin)
	}
	if c.csrfHw == "" {
		err := c.init(ctx)
		if err != nil {
			return err
		}
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url:    c.actionLogin,
		Method: http.MethodPost,
		Data: map[string]string{
			"CSRFHW":     c.csrfHw,
			"wlanuserip": c.wlanUserIp,
			"username":   c.username,
			"password":   c.password,
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "login request failed")
		return err
	}

	groups := attributeUuidRegex.FindStringSubmatch(res.String())
	if groups == nil {
		doc, parseErr := htmlutil.Parse(res.Body())
		if parseErr == nil {
			if portalErr := nauta.Connect.CheckDocument(doc); portalErr != nil {
				span.SetStatus(codes.Error, portalErr.Error())
				return fmt.Errorf("%w: %w", nauta.ErrLogin, portalErr)
			}
		}
		span.SetStatus(codes.Error, "attribute token not found")
		return fmt.Errorf("%w: attribute token not found in response", nauta.ErrLogin)
	}

	c.attributeUuid = groups[1]
	return nil
}

// RemainingTime asks the gateway how much account time is left on the
// open connection.
func (c *Client) RemainingTime(ctx context.Context) (time.Duration, error) {
	ctx, span := tracer.Start(ctx, "client:RemainingTime")
	defer span.End()

	if !c.LoggedIn() {
		return 0, nauta.ErrNotLoggedIn
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url:    c.BaseUrl + "/EtecsaQueryServlet",
		Method: http.MethodPost,
		Data: map[string]string{
			"op":             "getLeftTime",
			"ATTRIBUTE_UUID": c.attributeUuid,
			"CSRFHW":         c.csrfHw,
			"wlanuserip":     c.wlanUserIp,
			"username":       c.username,
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to query remaining time")
		return 0, err
	}

	seconds, err := nauta.ParseSeconds(strings.TrimSpace(res.String()))
	if err != nil {
		span.SetStatus(codes.Error, "unparseable remaining time")
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// Disconnect closes the open connection. Success is signaled by a
// literal marker in the body, not by the status code; the portal keeps
// answering 200 either way.
func (c *Client) Disconnect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Disconnect")
	defer span.End()

	if !c.LoggedIn() {
		return nauta.ErrNotLoggedIn
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url: c.BaseUrl + "/LogoutServlet",
		Data: map[string]string{
			"username":       c.username,
			"wlanuserip":     c.wlanUserIp,
			"CSRFHW":         c.csrfHw,
			"ATTRIBUTE_UUID": c.attributeUuid,
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "logout request failed")
		return err
	}
	if !strings.Contains(res.String(), "SUCCESS") {
		span.SetStatus(codes.Error, "logout marker missing")
		return fmt.Errorf("%w: %s", nauta.ErrLogout, strings.TrimSpace(res.String()))
	}

	// a second disconnect is impossible once the token is gone
	c.attributeUuid = ""
	return nil
}
