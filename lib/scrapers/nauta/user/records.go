package user

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nauta-sdk/lib/htmlutil"
	"nauta-sdk/lib/scrapers/nauta"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// every record listing paginates in pages of 14 rows
const pageSize = 14

const rowSelector = ".responsive-table > tbody"

// category binds one record type to its three portal routes. The base
// route serves the csrf token, the summary route takes the year-month
// POST, and the list route serves the paginated rows.
type category struct {
	name     string
	base     string
	summary  string
	list     string
	listType string
}

var (
	connectionsCategory = category{
		name:     "connections",
		base:     "/useraaa/service_detail/",
		summary:  "/useraaa/service_detail_summary/",
		list:     "/useraaa/service_detail_list/",
		listType: "service_detail",
	}
	rechargesCategory = category{
		name:     "recharges",
		base:     "/useraaa/recharge_detail/",
		summary:  "/useraaa/recharge_detail_summary/",
		list:     "/useraaa/recharge_detail_list/",
		listType: "recharge_detail",
	}
	transfersCategory = category{
		name:     "transfers",
		base:     "/useraaa/transfer_detail/",
		summary:  "/useraaa/transfer_detail_summary/",
		list:     "/useraaa/transfer_detail_list/",
		listType: "transfer_detail",
	}
	quotaPaymentsCategory = category{
		name:     "quota payments",
		base:     "/useraaa/nautahogarpaid_detail/",
		summary:  "/useraaa/nautahogarpaid_detail_summary/",
		list:     "/useraaa/nautahogarpaid_detail_list/",
		listType: "nautahogarpaid_detail",
	}
)

// fetchSummary posts the year-month filter and returns the summary page
// together with the hidden count and normalized year-month the portal
// echoed back. The echoed year-month, not the requested one, is what
// the list routes accept.
func (c *Client) fetchSummary(ctx context.Context, cat category, year int, month time.Month) (*goquery.Document, int, string, error) {
	ctx, span := tracer.Start(ctx, "client:fetchSummary")
	defer span.End()

	if !c.loggedIn {
		return nil, 0, "", nauta.ErrNotLoggedIn
	}
	err := c.loadCsrf(ctx, cat.base)
	if err != nil {
		return nil, 0, "", err
	}

	res, err := nauta.Perform(ctx, c.http, nauta.Action{
		Url:    cat.summary,
		Method: http.MethodPost,
		Data: map[string]string{
			"csrf":       c.csrf,
			"year_month": fmt.Sprintf("%d-%02d", year, month),
			"list_type":  cat.listType,
		},
	})
	if err != nil {
		span.SetStatus(codes.Error, "summary request failed")
		return nil, 0, "", err
	}
	doc, err := c.parseResponse(cat.name+" summary", res)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, "", err
	}

	count, err := strconv.Atoi(strings.TrimSpace(htmlutil.InputValue(doc, "count")))
	if err != nil {
		span.SetStatus(codes.Error, "summary page has no count")
		return nil, 0, "", fmt.Errorf("%s summary: parsing count: %w", cat.name, err)
	}
	yearMonth := htmlutil.InputValue(doc, "year_month_selected")
	return doc, count, yearMonth, nil
}

func summaryStats(doc *goquery.Document) []string {
	var stats []string
	doc.Find("#content .card-content .card-stats-number").Each(
		func(_ int, stat *goquery.Selection) {
			stats = append(stats, strings.TrimSpace(stat.Text()))
		})
	return stats
}

// GetConnectionsSummary totals the connections of one month.
func (c *Client) GetConnectionsSummary(ctx context.Context, year int, month time.Month) (*ConnectionsSummary, error) {
	ctx, span := tracer.Start(ctx, "client:GetConnectionsSummary")
	defer span.End()

	doc, count, yearMonth, err := c.fetchSummary(ctx, connectionsCategory, year, month)
	if err != nil {
		return nil, err
	}
	stats := summaryStats(doc)
	if len(stats) < 5 {
		span.SetStatus(codes.Error, "missing summary stats")
		return nil, fmt.Errorf("connections summary: expected 5 stats, got %d", len(stats))
	}

	totalTime, err := nauta.ParseSeconds(stats[0])
	if err != nil {
		return nil, fmt.Errorf("connections summary: %w", err)
	}
	totalCost, err := nauta.ParsePrice(stats[1])
	if err != nil {
		return nil, fmt.Errorf("connections summary: %w", err)
	}
	uploaded, err := nauta.ParseBytes(stats[2])
	if err != nil {
		return nil, fmt.Errorf("connections summary: %w", err)
	}
	downloaded, err := nauta.ParseBytes(stats[3])
	if err != nil {
		return nil, fmt.Errorf("connections summary: %w", err)
	}
	totalTraffic, err := nauta.ParseBytes(stats[4])
	if err != nil {
		return nil, fmt.Errorf("connections summary: %w", err)
	}

	return &ConnectionsSummary{
		Count:        count,
		YearMonth:    yearMonth,
		TotalTime:    totalTime,
		TotalCost:    totalCost,
		Uploaded:     uploaded,
		Downloaded:   downloaded,
		TotalTraffic: totalTraffic,
	}, nil
}

func (c *Client) fetchCostSummary(ctx context.Context, cat category, year int, month time.Month) (int, string, float64, error) {
	doc, count, yearMonth, err := c.fetchSummary(ctx, cat, year, month)
	if err != nil {
		return 0, "", 0, err
	}
	stats := summaryStats(doc)
	if len(stats) < 1 {
		return 0, "", 0, fmt.Errorf("%s summary: no stats on page", cat.name)
	}
	totalCost, err := nauta.ParsePrice(stats[0])
	if err != nil {
		return 0, "", 0, fmt.Errorf("%s summary: %w", cat.name, err)
	}
	return count, yearMonth, totalCost, nil
}

// GetRechargesSummary totals the recharges of one month.
func (c *Client) GetRechargesSummary(ctx context.Context, year int, month time.Month) (*RechargesSummary, error) {
	ctx, span := tracer.Start(ctx, "client:GetRechargesSummary")
	defer span.End()

	count, yearMonth, totalCost, err := c.fetchCostSummary(ctx, rechargesCategory, year, month)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &RechargesSummary{Count: count, YearMonth: yearMonth, TotalCost: totalCost}, nil
}

// GetTransfersSummary totals the outbound transfers of one month.
func (c *Client) GetTransfersSummary(ctx context.Context, year int, month time.Month) (*TransfersSummary, error) {
	ctx, span := tracer.Start(ctx, "client:GetTransfersSummary")
	defer span.End()

	count, yearMonth, totalCost, err := c.fetchCostSummary(ctx, transfersCategory, year, month)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &TransfersSummary{Count: count, YearMonth: yearMonth, TotalCost: totalCost}, nil
}

// GetQuotaPaymentsSummary totals the nauta hogar quota payments of one
// month.
func (c *Client) GetQuotaPaymentsSummary(ctx context.Context, year int, month time.Month) (*QuotaPaymentsSummary, error) {
	ctx, span := tracer.Start(ctx, "client:GetQuotaPaymentsSummary")
	defer span.End()

	count, yearMonth, totalCost, err := c.fetchCostSummary(ctx, quotaPaymentsCategory, year, month)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &QuotaPaymentsSummary{Count: count, YearMonth: yearMonth, TotalCost: totalCost}, nil
}

// fetchRecords walks the paginated list until it has gathered `large`
// rows (or every row when large is zero). When reversed, it walks the
// pages back to front and flips each page, which yields rows in
// newest-first order without ever fetching more pages than needed.
func fetchRecords[T any](
	ctx context.Context, c *Client, cat category,
	count int, yearMonth string, large int, reversed bool,
	parseRow func(cells []string) (T, error),
) ([]T, error) {
	ctx, span := tracer.Start(ctx, "client:fetchRecords")
	defer span.End()

	if !c.loggedIn {
		return nil, nauta.ErrNotLoggedIn
	}
	if large <= 0 || large > count {
		large = count
	}
	if count == 0 {
		return nil, nil
	}

	totalPages := (count + pageSize - 1) / pageSize
	cursor, step := 1, 1
	if reversed {
		cursor, step = totalPages, -1
	}

	var records []T
	for len(records) < large && cursor >= 1 && cursor <= totalPages {
		url := cat.list + yearMonth + "/" + strconv.Itoa(count)
		if cursor > 1 {
			url += "/" + strconv.Itoa(cursor)
		}

		res, err := nauta.Perform(ctx, c.http, nauta.Action{Url: url})
		if err != nil {
			span.SetStatus(codes.Error, "list page request failed")
			return nil, err
		}
		doc, err := c.parseResponse(cat.name+" list", res)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		rows := htmlutil.TableRows(doc, rowSelector)
		if reversed {
			for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
				rows[i], rows[j] = rows[j], rows[i]
			}
		}
		for _, row := range rows {
			record, err := parseRow(htmlutil.CellText(row))
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, fmt.Errorf("%s page %d: %w", cat.name, cursor, err)
			}
			records = append(records, record)
		}
		cursor += step
	}

	if len(records) > large {
		records = records[:large]
	}
	return records, nil
}

func parseConnectionRow(cells []string) (Connection, error) {
	if len(cells) != 6 {
		return Connection{}, fmt.Errorf("connection row has %d cells, want 6", len(cells))
	}
	start, err := nauta.ParseDateTime(cells[0])
	if err != nil {
		return Connection{}, err
	}
	end, err := nauta.ParseDateTime(cells[1])
	if err != nil {
		return Connection{}, err
	}
	duration, err := nauta.ParseSeconds(cells[2])
	if err != nil {
		return Connection{}, err
	}
	uploaded, err := nauta.ParseBytes(cells[3])
	if err != nil {
		return Connection{}, err
	}
	downloaded, err := nauta.ParseBytes(cells[4])
	if err != nil {
		return Connection{}, err
	}
	cost, err := nauta.ParsePrice(cells[5])
	if err != nil {
		return Connection{}, err
	}
	return Connection{
		Start:      start,
		End:        end,
		Duration:   duration,
		Uploaded:   uploaded,
		Downloaded: downloaded,
		Cost:       cost,
	}, nil
}

func parseRechargeRow(cells []string) (Recharge, error) {
	if len(cells) != 4 {
		return Recharge{}, fmt.Errorf("recharge row has %d cells, want 4", len(cells))
	}
	date, err := nauta.ParseDateTime(cells[0])
	if err != nil {
		return Recharge{}, err
	}
	amount, err := nauta.ParsePrice(cells[1])
	if err != nil {
		return Recharge{}, err
	}
	return Recharge{Date: date, Amount: amount, Channel: cells[2], Type: cells[3]}, nil
}

func parseTransferRow(cells []string) (Transfer, error) {
	if len(cells) != 3 {
		return Transfer{}, fmt.Errorf("transfer row has %d cells, want 3", len(cells))
	}
	date, err := nauta.ParseDateTime(cells[0])
	if err != nil {
		return Transfer{}, err
	}
	amount, err := nauta.ParsePrice(cells[1])
	if err != nil {
		return Transfer{}, err
	}
	return Transfer{Date: date, Amount: amount, DestinationAccount: cells[2]}, nil
}

func parseQuotaPaymentRow(cells []string) (QuotaPayment, error) {
	if len(cells) != 5 {
		return QuotaPayment{}, fmt.Errorf("quota payment row has %d cells, want 5", len(cells))
	}
	date, err := nauta.ParseDateTime(cells[0])
	if err != nil {
		return QuotaPayment{}, err
	}
	amount, err := nauta.ParsePrice(cells[1])
	if err != nil {
		return QuotaPayment{}, err
	}
	return QuotaPayment{
		Date:    date,
		Amount:  amount,
		Channel: cells[2],
		Type:    cells[3],
		Office:  cells[4],
	}, nil
}

// GetConnections lists the connections behind a summary. large caps how
// many rows come back (zero means all); reversed returns newest first.
func (c *Client) GetConnections(ctx context.Context, summary *ConnectionsSummary, large int, reversed bool) ([]Connection, error) {
	return fetchRecords(ctx, c, connectionsCategory,
		summary.Count, summary.YearMonth, large, reversed, parseConnectionRow)
}

// GetRecharges lists the recharges behind a summary.
func (c *Client) GetRecharges(ctx context.Context, summary *RechargesSummary, large int, reversed bool) ([]Recharge, error) {
	return fetchRecords(ctx, c, rechargesCategory,
		summary.Count, summary.YearMonth, large, reversed, parseRechargeRow)
}

// GetTransfers lists the transfers behind a summary.
func (c *Client) GetTransfers(ctx context.Context, summary *TransfersSummary, large int, reversed bool) ([]Transfer, error) {
	return fetchRecords(ctx, c, transfersCategory,
		summary.Count, summary.YearMonth, large, reversed, parseTransferRow)
}

// GetQuotaPayments lists the nauta hogar quota payments behind a
// summary.
func (c *Client) GetQuotaPayments(ctx context.Context, summary *QuotaPaymentsSummary, large int, reversed bool) ([]QuotaPayment, error) {
	return fetchRecords(ctx, c, quotaPaymentsCategory,
		summary.Count, summary.YearMonth, large, reversed, parseQuotaPaymentRow)
}
