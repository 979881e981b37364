package cmd

import (
	"fmt"
	"os"

	"nauta-sdk/lib/scrapers/nauta/user"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	accountCmd.AddCommand(accountInfoCmd)
	accountCmd.AddCommand(accountLoginCmd)
	rootCmd.AddCommand(accountCmd)
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account portal operations.",
}

var accountLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verifies the configured credentials against the account portal.",
	Run: func(cmd *cobra.Command, args []string) {
		_, profile := loginUser(cmd)
		fmt.Printf("logged in as %s\n", profile.Username)
	},
}

var accountInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Logs into the account portal and prints the profile.",
	Run: func(cmd *cobra.Command, args []string) {
		_, profile := loginUser(cmd)
		printProfile(profile)
	},
}

func printProfile(profile *user.Profile) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"Account", profile.Username},
		{"Blocking date", profile.BlockingDate},
		{"Deletion date", profile.DeletionDate},
		{"Account type", profile.AccountType},
		{"Service type", profile.ServiceType},
		{"Credit", profile.Credit},
		{"Time", profile.Time},
		{"Mail account", profile.MailAccount},
	})
	if profile.IsHome() {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Offer", profile.Offer},
			{"Monthly fee", profile.MonthlyFee},
			{"Download speed", profile.DownloadSpeed},
			{"Upload speed", profile.UploadSpeed},
			{"Phone", profile.Phone},
			{"Link status", profile.LinkStatus},
			{"Activation date", profile.ActivationDate},
			{"Quota fund", profile.QuotaFund},
			{"Voucher", profile.Voucher},
			{"Debt", profile.Debt},
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
