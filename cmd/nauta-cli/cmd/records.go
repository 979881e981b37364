package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"nauta-sdk/lib/recordstore"
	"nauta-sdk/lib/scrapers/nauta"
	"nauta-sdk/lib/scrapers/nauta/user"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	recordsMonth    string
	recordsLast     int
	recordsReversed bool
	recordsSave     bool
)

func init() {
	recordsCmd.PersistentFlags().StringVar(&recordsMonth, "month", "", "month to list, YYYY-MM (defaults to the current month)")
	recordsCmd.PersistentFlags().IntVar(&recordsLast, "last", 0, "only list this many records (0 means all)")
	recordsCmd.PersistentFlags().BoolVar(&recordsReversed, "reversed", false, "list newest records first")
	recordsCmd.PersistentFlags().BoolVar(&recordsSave, "save", false, "archive the fetched records locally")

	recordsCmd.AddCommand(recordsConnectionsCmd)
	recordsCmd.AddCommand(recordsRechargesCmd)
	recordsCmd.AddCommand(recordsTransfersCmd)
	recordsCmd.AddCommand(recordsQuotasCmd)
	rootCmd.AddCommand(recordsCmd)
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Lists account records of one month.",
}

const timestampLayout = "2006-01-02 15:04:05"

// archive pushes fetched records into the local sqlite store.
func archive[T any](cmd *cobra.Command, category, yearMonth string, records []T, occurredAt func(T) time.Time) {
	store := openRecordStore()
	defer store.Close()

	rows := make([]recordstore.Record, len(records))
	for i, record := range records {
		detail, err := json.Marshal(record)
		if err != nil {
			log.Fatal(err)
		}
		rows[i] = recordstore.Record{OccurredAt: occurredAt(record), Detail: detail}
	}
	err := store.Push(cmd.Context(), recordstore.PushRequest{
		Account:   config.Username,
		Category:  category,
		YearMonth: yearMonth,
		Records:   rows,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("archived %d records for %s\n", len(rows), yearMonth)
}

func renderTable(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.SetStyle(table.StyleRounded)
	t.Render()
}

var recordsConnectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Lists the connections of one month.",
	Run: func(cmd *cobra.Command, args []string) {
		year, month := parseMonth(recordsMonth)
		client, _ := loginUser(cmd)

		summary, err := client.GetConnectionsSummary(cmd.Context(), year, month)
		if err != nil {
			log.Fatal(err)
		}
		connections, err := client.GetConnections(cmd.Context(), summary, recordsLast, recordsReversed)
		if err != nil {
			log.Fatal(err)
		}

		rows := make([]table.Row, len(connections))
		for i, conn := range connections {
			rows[i] = table.Row{
				conn.Start.Format(timestampLayout),
				conn.End.Format(timestampLayout),
				nauta.FormatSeconds(conn.Duration),
				nauta.FormatBytes(conn.Uploaded),
				nauta.FormatBytes(conn.Downloaded),
				fmt.Sprintf("%.2f", conn.Cost),
			}
		}
		renderTable(table.Row{"Start", "End", "Duration", "Uploaded", "Downloaded", "Cost"}, rows)
		fmt.Printf("%d connections, %s online, %.2f spent\n",
			summary.Count, nauta.FormatSeconds(summary.TotalTime), summary.TotalCost)

		if recordsSave {
			archive(cmd, "connections", summary.YearMonth, connections,
				func(c user.Connection) time.Time { return c.Start })
		}
	},
}

var recordsRechargesCmd = &cobra.Command{
	Use:   "recharges",
	Short: "Lists the recharges of one month.",
	Run: func(cmd *cobra.Command, args []string) {
		year, month := parseMonth(recordsMonth)
		client, _ := loginUser(cmd)

		summary, err := client.GetRechargesSummary(cmd.Context(), year, month)
		if err != nil {
			log.Fatal(err)
		}
		recharges, err := client.GetRecharges(cmd.Context(), summary, recordsLast, recordsReversed)
		if err != nil {
			log.Fatal(err)
		}

		rows := make([]table.Row, len(recharges))
		for i, recharge := range recharges {
			rows[i] = table.Row{
				recharge.Date.Format(timestampLayout),
				fmt.Sprintf("%.2f", recharge.Amount),
				recharge.Channel,
				recharge.Type,
			}
		}
		renderTable(table.Row{"Date", "Amount", "Channel", "Type"}, rows)
		fmt.Printf("%d recharges, %.2f total\n", summary.Count, summary.TotalCost)

		if recordsSave {
			archive(cmd, "recharges", summary.YearMonth, recharges,
				func(r user.Recharge) time.Time { return r.Date })
		}
	},
}

var recordsTransfersCmd = &cobra.Command{
	Use:   "transfers",
	Short: "Lists the outbound transfers of one month.",
	Run: func(cmd *cobra.Command, args []string) {
		year, month := parseMonth(recordsMonth)
		client, _ := loginUser(cmd)

		summary, err := client.GetTransfersSummary(cmd.Context(), year, month)
		if err != nil {
			log.Fatal(err)
		}
		transfers, err := client.GetTransfers(cmd.Context(), summary, recordsLast, recordsReversed)
		if err != nil {
			log.Fatal(err)
		}

		rows := make([]table.Row, len(transfers))
		for i, transfer := range transfers {
			rows[i] = table.Row{
				transfer.Date.Format(timestampLayout),
				fmt.Sprintf("%.2f", transfer.Amount),
				transfer.DestinationAccount,
			}
		}
		renderTable(table.Row{"Date", "Amount", "Destination"}, rows)
		fmt.Printf("%d transfers, %.2f total\n", summary.Count, summary.TotalCost)

		if recordsSave {
			archive(cmd, "transfers", summary.YearMonth, transfers,
				func(t user.Transfer) time.Time { return t.Date })
		}
	},
}

var recordsQuotasCmd = &cobra.Command{
	Use:   "quotas",
	Short: "Lists the nauta hogar quota payments of one month.",
	Run: func(cmd *cobra.Command, args []string) {
		year, month := parseMonth(recordsMonth)
		client, profile := loginUser(cmd)
		if !profile.IsHome() {
			log.Fatal("this account has no nauta hogar plan")
		}

		summary, err := client.GetQuotaPaymentsSummary(cmd.Context(), year, month)
		if err != nil {
			log.Fatal(err)
		}
		payments, err := client.GetQuotaPayments(cmd.Context(), summary, recordsLast, recordsReversed)
		if err != nil {
			log.Fatal(err)
		}

		rows := make([]table.Row, len(payments))
		for i, payment := range payments {
			rows[i] = table.Row{
				payment.Date.Format(timestampLayout),
				fmt.Sprintf("%.2f", payment.Amount),
				payment.Channel,
				payment.Type,
				payment.Office,
			}
		}
		renderTable(table.Row{"Date", "Amount", "Channel", "Type", "Office"}, rows)
		fmt.Printf("%d payments, %.2f total\n", summary.Count, summary.TotalCost)

		if recordsSave {
			archive(cmd, "quota_payments", summary.YearMonth, payments,
				func(p user.QuotaPayment) time.Time { return p.Date })
		}
	},
}
