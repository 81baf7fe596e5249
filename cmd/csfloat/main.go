package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/uniyx/unibot/pkg/csfloat"
	"github.com/uniyx/unibot/pkg/steam"
)

var errNoKey = errors.New("No CSFloat API key found. Set CSFLOAT_API_KEY or pass --key.")

var (
	flagSteamID             string
	flagUser                string
	flagIncludeUnmarketable bool
	flagSleep               float64
	flagCSV                 string
	flagKey                 string
	flagVerbose             bool
	flagProbe               bool
)

var rootCmd = &cobra.Command{
	Use:           "csfloat",
	Short:         "Value a Steam CS2 inventory using CSFloat prices only, with sequential output",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func run(cmd *cobra.Command, args []string) error {
	token := flagKey
	if token == "" {
		token = os.Getenv("CSFLOAT_API_KEY")
	}
	if token == "" {
		token = os.Getenv("FLOAT_TOKEN")
	}
	if token == "" {
		return errNoKey
	}

	cf, err := csfloat.New(token, time.Duration(flagSleep*float64(time.Second)), flagVerbose)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// Optional probe to prove the key actually works.
	if flagProbe {
		listings, err := cf.RecentListings(ctx, 5)
		if err != nil {
			return err
		}
		fmt.Printf("[probe] fetched %d listings total\n", len(listings))
		if len(listings) > 0 {
			fmt.Printf("[probe] first id=%s price_cents=%d\n", listings[0].ID.String(), int64(listings[0].Price))
		}
		return nil
	}

	sc := steam.NewClient()
	steamID := strings.TrimSpace(flagSteamID)
	if steamID == "" {
		steamID, err = sc.ResolveVanity(ctx, flagUser)
		if err != nil {
			return err
		}
	}

	assets, err := sc.FetchInventory(ctx, steamID)
	if err != nil {
		return err
	}
	counts := steam.CountByName(assets, flagIncludeUnmarketable)

	total, rows, err := csfloat.Valuate(ctx, os.Stdout, counts, cf, true)
	if err != nil {
		return err
	}

	if flagCSV != "" {
		if err := csfloat.WriteCSV(flagCSV, rows, total); err != nil {
			fmt.Fprintf(os.Stderr, "[csv] Could not write CSV: %v\n", err)
		} else {
			fmt.Printf("\nCSV written to %s\n", flagCSV)
		}
	}
	return nil
}

func init() {
	rootCmd.Flags().StringVar(&flagSteamID, "steamid", "", "SteamID64")
	rootCmd.Flags().StringVar(&flagUser, "user", "", "Vanity profile name")
	rootCmd.Flags().BoolVar(&flagIncludeUnmarketable, "include-unmarketable", false, "Count unmarketable items too")
	rootCmd.Flags().Float64Var(&flagSleep, "sleep", 0.5, "Seconds to sleep between CSFloat requests")
	rootCmd.Flags().StringVar(&flagCSV, "csv", "", "Write results to CSV file")
	rootCmd.Flags().StringVar(&flagKey, "key", "", "CSFloat API key override")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Verbose CSFloat requests")
	rootCmd.Flags().BoolVar(&flagProbe, "probe", false, "Probe CSFloat access by fetching site-wide listings")
	rootCmd.MarkFlagsMutuallyExclusive("steamid", "user")
	rootCmd.MarkFlagsOneRequired("steamid", "user")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var httpErr *steam.HTTPError
		switch {
		case errors.Is(err, errNoKey):
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		case errors.Is(err, steam.ErrInventoryPrivate):
			fmt.Fprintf(os.Stderr, "[inventory] %v\n", err)
			os.Exit(3)
		case errors.As(err, &httpErr):
			fmt.Fprintf(os.Stderr, "[http] %v\n", err)
			os.Exit(4)
		default:
			fmt.Fprintf(os.Stderr, "[fatal] %v\n", err)
			os.Exit(5)
		}
	}
}
