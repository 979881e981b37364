package connect

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"nauta-sdk/lib/htmlutil"
	"nauta-sdk/lib/scrapers/nauta"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

type AccountInfo struct {
	AccountStatus  string
	Credit         string
	ExpirationDate string
	AccessAreas    string
}

type LastConnection struct {
	From string
	To   string
	Time string
}

type ConnectInfo struct {
	Account         AccountInfo
	LastConnections []LastConnection
}

// Info queries the gateway for account status and the trace of recent
// connections. It authenticates with the raw credentials instead of the
// attribute token, so it also works while disconnected.
func (c *Client) Info(ctx context.Context) (*ConnectInfo, error) {
	ctx, span := tracer.Start(ctx, "client:Info")
	defer span.End()

	if c.username == "" || c.password == "" {
		return nil, fmt.Errorf("%w: username and password are required", nauta.ErrLogin)
	}
	if c.csrfHw == "" {
		err := c.init(ctx)
		if err != nil {
			return nil, err
		}
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url:    c.BaseUrl + "/EtecsaQueryServlet",
		Method: http.MethodPost,
		Data: map[string]string{
			"username":   c.username,
			"password":   c.password,
			"wlanuserip": c.wlanUserIp,
			"CSRFHW":     c.csrfHw,
			"lang":       "",
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to query account info")
		return nil, err
	}
	doc, err := htmlutil.Parse(res.Body())
	if err != nil {
		return nil, err
	}
	if portalErr := nauta.Connect.CheckDocument(doc); portalErr != nil {
		span.SetStatus(codes.Error, portalErr.Error())
		return nil, portalErr
	}

	var values []string
	doc.Find("#sessioninfo > tbody > tr > td:not(.key)").Each(func(_ int, cell *goquery.Selection) {
		values = append(values, strings.TrimSpace(cell.Text()))
	})
	if len(values) < 4 {
		span.SetStatus(codes.Error, "session info table missing")
		return nil, fmt.Errorf("session info table not found")
	}

	info := &ConnectInfo{
		Account: AccountInfo{
			AccountStatus:  values[0],
			Credit:         values[1],
			ExpirationDate: values[2],
			AccessAreas:    values[3],
		},
	}
	for _, row := range htmlutil.TableRows(doc, "#sesiontraza > tbody") {
		cells := htmlutil.CellText(row)
		if len(cells) < 3 {
			continue
		}
		info.LastConnections = append(info.LastConnections, LastConnection{
			From: cells[0],
			To:   cells[1],
			Time: cells[2],
		})
	}
	return info, nil
}
