package cmd

import (
	"fmt"
	"log"

	"nauta-sdk/lib/sessionshare"

	"github.com/spf13/cobra"
)

func init() {
	sessionCmd.AddCommand(sessionShareCmd)
	sessionCmd.AddCommand(sessionImportCmd)
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Hands the gateway session over to another device.",
}

var sessionShareCmd = &cobra.Command{
	Use:   "share",
	Short: "Serves the stored session to another device on the local network.",
	Run: func(cmd *cobra.Command, args []string) {
		store := openSessionStore()
		defer store.Close()
		client := restoreSession(cmd, store)

		session, err := client.Export()
		if err != nil {
			log.Fatal(err)
		}

		server, err := sessionshare.Share(cmd.Context(), session,
			fmt.Sprintf(":%d", sessionshare.DefaultPort))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("serving on %s, share code: %s\n", server.Addr, server.Code)

		err = server.Wait()
		if err != nil {
			log.Fatal(err)
		}

		// the receiver owns the login now, the local copy must go so
		// nothing here logs it out underneath them
		err = store.Delete(cmd.Context(), config.Username)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("session handed over")
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <host:port> <share code>",
	Short: "Receives a session shared by another device.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		session, err := sessionshare.Fetch(cmd.Context(), args[0], args[1])
		if err != nil {
			log.Fatal(err)
		}

		// validate before storing
		client := newConnectClient()
		err = client.Load(session)
		if err != nil {
			log.Fatal("received session is incomplete: ", err)
		}

		store := openSessionStore()
		defer store.Close()
		// keyed by the account the session belongs to, which is not
		// necessarily the locally configured one
		err = store.Save(cmd.Context(), session["username"], session)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("session imported")
	},
}
