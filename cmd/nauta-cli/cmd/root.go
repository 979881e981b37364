package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nauta-sdk/lib/configutil"
	"nauta-sdk/lib/recordstore"
	"nauta-sdk/lib/scrapers/nauta/connect"
	"nauta-sdk/lib/scrapers/nauta/user"
	"nauta-sdk/lib/sessionstore"
	"nauta-sdk/lib/timezone"

	"github.com/spf13/cobra"
)

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// where sessions and the record archive live, defaults to ~/.nauta
	DataDir string `json:"dataDir"`

	Connect struct {
		BaseUrl  string `json:"baseUrl"`
		CheckUrl string `json:"checkUrl"`
	} `json:"connect"`
	User struct {
		BaseUrl string `json:"baseUrl"`
	} `json:"user"`
}

var config Config

var rootCmd = &cobra.Command{
	Use:   "nauta-cli",
	Short: "nauta-cli manages ETECSA nauta connections and accounts from the terminal.",
}

func Execute() {
	var err error
	config, err = configutil.ReadConfig[Config]("nauta.json5")
	if err != nil {
		log.Fatal("could not read nauta.json5: ", err)
	}
	if config.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		config.DataDir = filepath.Join(home, ".nauta")
	}
	err = os.MkdirAll(config.DataDir, 0o700)
	if err != nil {
		log.Fatal(err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func requireCredentials() {
	if config.Username == "" || config.Password == "" {
		log.Fatal("username and password must be set in nauta.json5")
	}
}

func newConnectClient() *connect.Client {
	requireCredentials()
	client, err := connect.NewClient(connect.ClientOptions{
		BaseUrl:  config.Connect.BaseUrl,
		CheckUrl: config.Connect.CheckUrl,
		Username: config.Username,
		Password: config.Password,
	})
	if err != nil {
		log.Fatal(err)
	}
	return client
}

func openSessionStore() sessionstore.Store {
	store, err := sessionstore.Open(filepath.Join(config.DataDir, "sessions"))
	if err != nil {
		log.Fatal(err)
	}
	return store
}

func openRecordStore() recordstore.Store {
	store, err := recordstore.Open(filepath.Join(config.DataDir, "records.db"))
	if err != nil {
		log.Fatal(err)
	}
	return store
}

// loginUser walks the captcha dance: the image lands next to the
// config file and the code comes from stdin.
func loginUser(cmd *cobra.Command) (*user.Client, *user.Profile) {
	requireCredentials()
	client, err := user.NewClient(user.ClientOptions{
		BaseUrl:  config.User.BaseUrl,
		Username: config.Username,
		Password: config.Password,
	})
	if err != nil {
		log.Fatal(err)
	}

	captcha, err := client.Captcha(cmd.Context())
	if err != nil {
		log.Fatal("could not fetch captcha: ", err)
	}
	captchaPath := filepath.Join(config.DataDir, "captcha.png")
	err = os.WriteFile(captchaPath, captcha, 0o600)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("captcha image written to %s\n", captchaPath)
	fmt.Print("captcha code: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		log.Fatal(err)
	}

	profile, err := client.Login(cmd.Context(), strings.TrimSpace(code))
	if err != nil {
		log.Fatal("login failed: ", err)
	}
	return client, profile
}

// parseMonth turns a --month value ("2026-03", empty means the current
// month) into its pieces.
func parseMonth(value string) (int, time.Month) {
	if value == "" {
		now := timezone.Now()
		return now.Year(), now.Month()
	}
	parsed, err := time.ParseInLocation("2006-01", value, timezone.Location)
	if err != nil {
		log.Fatal("invalid month, want YYYY-MM: ", err)
	}
	return parsed.Year(), parsed.Month()
}
