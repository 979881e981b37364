package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"nauta-sdk/lib/scrapers/nauta"
	"nauta-sdk/lib/scrapers/nauta/connect"
	"nauta-sdk/lib/sessionstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(timeCmd)
	rootCmd.AddCommand(statusCmd)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Logs in at the captive gateway and stores the session.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newConnectClient()
		store := openSessionStore()
		defer store.Close()

		if _, err := store.Load(cmd.Context(), config.Username); err == nil {
			log.Fatal("a stored session already exists, run `nauta-cli down` first")
		}

		err := client.Connect(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		session, err := client.Export()
		if err != nil {
			log.Fatal(err)
		}
		err = store.Save(cmd.Context(), config.Username, session)
		if err != nil {
			// without the stored tokens nothing can log this session
			// out later, so surface loudly and keep the connection up
			log.Fatal("connected, but failed to store the session: ", err)
		}

		left, err := client.RemainingTime(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("connected, %s remaining\n", nauta.FormatSeconds(int64(left.Seconds())))
	},
}

// restoreSession rebuilds a connect client from the stored session.
func restoreSession(cmd *cobra.Command, store sessionstore.Store) *connect.Client {
	session, err := store.Load(cmd.Context(), config.Username)
	if errors.Is(err, sessionstore.ErrSessionNotFound) {
		log.Fatal("no stored session, run `nauta-cli up` first")
	}
	if err != nil {
		log.Fatal(err)
	}

	client := newConnectClient()
	err = client.Load(session)
	if err != nil {
		log.Fatal("stored session is corrupt: ", err)
	}
	return client
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Logs the stored session out of the captive gateway.",
	Run: func(cmd *cobra.Command, args []string) {
		store := openSessionStore()
		defer store.Close()
		client := restoreSession(cmd, store)

		err := client.Disconnect(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		err = store.Delete(cmd.Context(), config.Username)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("disconnected")
	},
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Prints the remaining time of the stored session.",
	Run: func(cmd *cobra.Command, args []string) {
		store := openSessionStore()
		defer store.Close()
		client := restoreSession(cmd, store)

		left, err := client.RemainingTime(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(nauta.FormatSeconds(int64(left.Seconds())))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints the connectivity state and gateway account info.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newConnectClient()

		connected, err := client.IsConnected(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		if !connected {
			fmt.Println("offline (captive portal)")
			return
		}
		fmt.Println("online")

		info, err := client.Info(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"Status", info.Account.AccountStatus},
			{"Credit", info.Account.Credit},
			{"Expires", info.Account.ExpirationDate},
			{"Access areas", info.Account.AccessAreas},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()

		if len(info.LastConnections) > 0 {
			t = table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"From", "To", "Time"})
			for _, conn := range info.LastConnections {
				t.AppendRow(table.Row{conn.From, conn.To, conn.Time})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
		}
	},
}
