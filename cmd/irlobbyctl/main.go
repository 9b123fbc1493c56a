package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oggyb/irlobby/internal/client"
	"github.com/oggyb/irlobby/internal/core/eligibility"
)

var (
	apiFlag     string
	tokenFlag   string
	userFlag    int64
	timeoutFlag time.Duration
	minCapFlag  int
	maxCapFlag  int
	rootCmd     = &cobra.Command{
		Use:          "irlobbyctl",
		Short:        "CLI client for the irlobby REST API",
		SilenceUsage: true,
	}
)

func newClient() *client.Client {
	return client.New(apiFlag, tokenFlag, client.WithTimeout(timeoutFlag))
}

func policy() eligibility.Policy {
	return eligibility.Policy{MinCapacity: minCapFlag, MaxCapacity: maxCapFlag}
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", envOr("IRLOBBY_API", "http://localhost:8080"), "irlobby API base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", os.Getenv("IRLOBBY_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "Per-request timeout")

	rootCmd.AddCommand(feedCmd(), opportunitiesCmd(), canJoinCmd(), reviewCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
