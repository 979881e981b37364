package user

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nauta-sdk/lib/htmlutil"
	"nauta-sdk/lib/scrapers/nauta"

	"github.com/PuerkitoBio/goquery"
	"github.com/dubonzi/otelresty"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/nauta/user")

const (
	routeLogin              = "/user/login/es-es"
	routeCaptcha            = "/captcha/?"
	routeUserInfo           = "/useraaa/user_info"
	routeRecharge           = "/useraaa/recharge_account"
	routeTransfer           = "/useraaa/transfer_balance"
	routeQuotaFund          = "/useraaa/transfer_nautahogarpaid"
	routeChangePassword     = "/useraaa/change_password"
	routeChangeMailPassword = "/mail/change_password"
)

// the captcha endpoint renders slowly over a captive link, so it gets a
// more generous timeout than everything else
const captchaTimeout = 25 * time.Second

// Client is an authenticated session against the account-management
// portal. Every action re-acquires its anti-forgery token because the
// portal rotates it on each page load.
type Client struct {
	BaseUrl string
	http    *resty.Client

	username string
	password string

	csrf     string
	loggedIn bool
	isHome   bool
}

type ClientOptions struct {
	// defaults to the production portal
	BaseUrl  string
	Username string
	Password string
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = nauta.UserBaseUrl
	}

	client, err := nauta.NewHttpClient(baseUrl)
	if err != nil {
		return nil, err
	}
	otelresty.TraceClient(client, otelresty.WithTracerName("scrapers/nauta/user/http"))

	return &Client{
		BaseUrl:  baseUrl,
		http:     client,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// IsHome reports whether the logged-in account is a nauta hogar plan.
func (c *Client) IsHome() bool {
	return c.isHome
}

func (c *Client) parseResponse(portalOp string, res *resty.Response) (*goquery.Document, error) {
	doc, err := htmlutil.Parse(res.Body())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", portalOp, err)
	}
	if portalErr := nauta.User.CheckDocument(doc); portalErr != nil {
		return nil, fmt.Errorf("%s: %w", portalOp, portalErr)
	}
	return doc, nil
}

// loadCsrf fetches the action's base page and pulls the fresh
// anti-forgery token out of it. Tokens are single use per action; they
// are never shared between two different action types.
func (c *Client) loadCsrf(ctx context.Context, route string) error {
	ctx, span := tracer.Start(ctx, "client:loadCsrf")
	defer span.End()

	res, err := nauta.Perform(ctx, c.http, nauta.Action{Url: route})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch token page")
		return err
	}
	doc, err := c.parseResponse("load csrf", res)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	token := htmlutil.InputValue(doc, "csrf")
	if token == "" {
		// the token input is always present on a healthy portal; its
		// absence means the markup changed under us
		span.SetStatus(codes.Error, "csrf input not found")
		return fmt.Errorf("csrf token not found at %s", route)
	}
	c.csrf = token
	return nil
}

// Captcha returns the raw bytes of a fresh captcha image. Fetching it
// also seeds the session cookie jar, so it must come before Login.
func (c *Client) Captcha(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Captcha")
	defer span.End()

	if c.csrf == "" {
		err := c.loadCsrf(ctx, routeLogin)
		if err != nil {
			return nil, err
		}
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url:     routeCaptcha,
		Timeout: captchaTimeout,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch captcha")
		return nil, err
	}
	return res.Body(), nil
}

// Login authenticates with the captcha code solved by the caller and
// returns the resulting account profile.
func (c *Client) Login(ctx context.Context, captchaCode string) (*Profile, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if c.csrf == "" {
		err := c.loadCsrf(ctx, routeLogin)
		if err != nil {
			return nil, err
		}
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url:    routeLogin,
		Method: http.MethodPost,
		Data: map[string]string{
			"csrf":          c.csrf,
			"login_user":    c.username,
			"password_user": c.password,
			"captcha":       captchaCode,
			"btn_submit":    "",
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "login request failed")
		return nil, err
	}
	doc, err := c.parseResponse("login", res)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", nauta.ErrLogin, err)
	}

	profile, err := parseProfile(doc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", nauta.ErrLogin, err)
	}
	c.loggedIn = true
	c.isHome = profile.IsHome()
	return profile, nil
}

// UserInfo re-fetches the account page of the logged-in session.
func (c *Client) UserInfo(ctx context.Context) (*Profile, error) {
	ctx, span := tracer.Start(ctx, "client:UserInfo")
	defer span.End()

	if !c.loggedIn {
		return nil, nauta.ErrNotLoggedIn
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{Url: routeUserInfo})
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch user info")
		return nil, err
	}
	doc, err := c.parseResponse("user info", res)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return parseProfile(doc)
}

// the account page lays the profile out as a fixed sequence of labeled
// cells; home plans append their extra fields at the end.
func parseProfile(doc *goquery.Document) (*Profile, error) {
	var fields []string
	doc.Find(".z-depth-1 .m6 p").Each(func(_ int, p *goquery.Selection) {
		fields = append(fields, strings.TrimSpace(p.Text()))
	})
	if len(fields) < 8 {
		return nil, fmt.Errorf("account page is missing profile fields (got %d)", len(fields))
	}

	profile := &Profile{
		Username:     fields[0],
		BlockingDate: fields[1],
		DeletionDate: fields[2],
		AccountType:  fields[3],
		ServiceType:  fields[4],
		Credit:       fields[5],
		Time:         fields[6],
		MailAccount:  fields[7],
	}
	extras := []*string{
		&profile.Offer, &profile.MonthlyFee, &profile.DownloadSpeed,
		&profile.UploadSpeed, &profile.Phone, &profile.LinkIdentifiers,
		&profile.LinkStatus, &profile.ActivationDate, &profile.BlockingDateHome,
		&profile.DeletionDateHome, &profile.QuotaFund, &profile.Voucher,
		&profile.Debt,
	}
	for i, extra := range extras {
		if 8+i >= len(fields) {
			break
		}
		*extra = fields[8+i]
	}
	return profile, nil
}

// mutate runs one state-changing action: fresh token, post, classify.
// The portal returns no useful body on success; callers wanting updated
// numbers re-fetch the profile afterwards.
func (c *Client) mutate(ctx context.Context, op, route string, data map[string]string) error {
	ctx, span := tracer.Start(ctx, "client:"+op)
	defer span.End()

	if !c.loggedIn {
		return nauta.ErrNotLoggedIn
	}
	err := c.loadCsrf(ctx, route)
	if err != nil {
		return err
	}

	data["csrf"] = c.csrf
	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url:    route,
		Method: http.MethodPost,
		Data:   data,
	})
	if err != nil {
		span.SetStatus(codes.Error, "request failed")
		return err
	}
	_, err = c.parseResponse(op, res)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// TopUp redeems a recharge code against the account balance.
func (c *Client) TopUp(ctx context.Context, rechargeCode string) error {
	return c.mutate(ctx, "TopUp", routeRecharge, map[string]string{
		"recharge_code": rechargeCode,
		"btn_submit":    "",
	})
}

// the portal wants money amounts with a decimal comma
func formatAmount(amount float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", amount), ".", ",", 1)
}

// TransferBalance moves credit to another nauta account.
func (c *Client) TransferBalance(ctx context.Context, amount float64, destinationAccount string) error {
	return c.mutate(ctx, "TransferBalance", routeTransfer, map[string]string{
		"transfer":      formatAmount(amount),
		"id_cuenta":     destinationAccount,
		"password_user": c.password,
		"action":        "checkdata",
	})
}

// FundQuota pays credit into the nauta hogar quota of the account
// itself.
func (c *Client) FundQuota(ctx context.Context, amount float64) error {
	return c.mutate(ctx, "FundQuota", routeQuotaFund, map[string]string{
		"transfer":      formatAmount(amount),
		"password_user": c.password,
		"action":        "checkdata",
	})
}

// ChangePassword rotates the portal password. The session keeps using
// the new password for follow-up transfers.
func (c *Client) ChangePassword(ctx context.Context, newPassword string) error {
	err := c.mutate(ctx, "ChangePassword", routeChangePassword, map[string]string{
		"old_password":        c.password,
		"new_password":        newPassword,
		"repeat_new_password": newPassword,
		"btn_submit":          "",
	})
	if err != nil {
		return err
	}
	c.password = newPassword
	return nil
}

// ChangeMailPassword rotates the password of the attached mail account.
func (c *Client) ChangeMailPassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.mutate(ctx, "ChangeMailPassword", routeChangeMailPassword, map[string]string{
		"old_password":        oldPassword,
		"new_password":        newPassword,
		"repeat_new_password": newPassword,
		"btn_submit":          "",
	})
}
