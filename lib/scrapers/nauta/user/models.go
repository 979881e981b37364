package user

import "time"

// Profile is the account page of the user portal, parsed from its fixed
// sequence of labeled fields. The home-plan fields are only present on
// nauta hogar accounts.
type Profile struct {
	Username     string
	BlockingDate string
	DeletionDate string
	AccountType  string
	ServiceType  string
	Credit       string
	Time         string
	MailAccount  string

	Offer            string
	MonthlyFee       string
	DownloadSpeed    string
	UploadSpeed      string
	Phone            string
	LinkIdentifiers  string
	LinkStatus       string
	ActivationDate   string
	BlockingDateHome string
	DeletionDateHome string
	QuotaFund        string
	Voucher          string
	Debt             string
}

// IsHome reports whether the account is on a nauta hogar plan, inferred
// from the presence of the offer field.
func (p *Profile) IsHome() bool {
	return p.Offer != ""
}

type Connection struct {
	Start      time.Time
	End        time.Time
	Duration   int64
	Uploaded   float64
	Downloaded float64
	Cost       float64
}

type Recharge struct {
	Date    time.Time
	Amount  float64
	Channel string
	Type    string
}

type Transfer struct {
	Date               time.Time
	Amount             float64
	DestinationAccount string
}

type QuotaPayment struct {
	Date    time.Time
	Amount  float64
	Channel string
	Type    string
	Office  string
}

// ConnectionsSummary aggregates one calendar month of connections. Count
// is authoritative for pagination: the listing has exactly
// ceil(Count/14) pages.
type ConnectionsSummary struct {
	Count        int
	YearMonth    string
	TotalTime    int64
	TotalCost    float64
	Uploaded     float64
	Downloaded   float64
	TotalTraffic float64
}

type RechargesSummary struct {
	Count     int
	YearMonth string
	TotalCost float64
}

type TransfersSummary struct {
	Count     int
	YearMonth string
	TotalCost float64
}

type QuotaPaymentsSummary struct {
	Count     int
	YearMonth string
	TotalCost float64
}
