package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(topupCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(quotaFundCmd)
	rootCmd.AddCommand(passwdCmd)
}

var topupCmd = &cobra.Command{
	Use:   "topup <recharge code>",
	Short: "Redeems a recharge code.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := loginUser(cmd)
		err := client.TopUp(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("recharged")
	},
}

func parseAmount(value string) float64 {
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil || amount <= 0 {
		log.Fatal("invalid amount: ", value)
	}
	return amount
}

var transferCmd = &cobra.Command{
	Use:   "transfer <amount> <destination account>",
	Short: "Transfers credit to another nauta account.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		amount := parseAmount(args[0])
		client, _ := loginUser(cmd)
		err := client.TransferBalance(cmd.Context(), amount, args[1])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("transferred %.2f to %s\n", amount, args[1])
	},
}

var quotaFundCmd = &cobra.Command{
	Use:   "quota <amount>",
	Short: "Pays credit into the nauta hogar quota.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		amount := parseAmount(args[0])
		client, profile := loginUser(cmd)
		if !profile.IsHome() {
			log.Fatal("this account has no nauta hogar plan")
		}
		err := client.FundQuota(cmd.Context(), amount)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("paid %.2f into the quota fund\n", amount)
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd <new password>",
	Short: "Changes the portal password.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, _ := loginUser(cmd)
		err := client.ChangePassword(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("password changed, update nauta.json5")
	},
}
