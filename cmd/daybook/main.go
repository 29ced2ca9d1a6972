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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"daybook/internal/config"
	"daybook/internal/digest"
	"daybook/internal/fuzzy"
	"daybook/internal/ics"
	appLog "daybook/internal/log"
	"daybook/internal/notion"
)

var rootCmd = &cobra.Command{
	Use:   "daybook [query]",
	Short: "Search your task database and print today's agenda",
	Long: `daybook pulls incomplete items from a Notion task database and events
from iCalendar feeds, and either fuzzy-searches them against a query or
prints the day's agenda.`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runRoot,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initEnv)
	addFlags()
	rootCmd.AddCommand(watchCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initEnv() {
	viper.SetEnvPrefix("DAYBOOK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addFlags() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", ".config.json", "path to the config file")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindPFlag("log-level", pf.Lookup("log-level"))

	f := rootCmd.Flags()
	f.Int("k", 3, "number of search results to return")
	f.Bool("today", false, "print today's tasks and events")
	f.String("date", "", "agenda date as YYYY-MM-DD (defaults to today)")
	f.Bool("table", false, "render search results as a table")
	_ = viper.BindPFlag("k", f.Lookup("k"))
	_ = viper.BindPFlag("today", f.Lookup("today"))
	_ = viper.BindPFlag("date", f.Lookup("date"))
	_ = viper.BindPFlag("table", f.Lookup("table"))
}

// buildDigest wires the adapters from the config file, with env
// overrides for the API credentials.
func buildDigest() (*digest.Digest, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("notion-api-key"); v != "" {
		cfg.NotionAPIKey = v
	}
	if v := viper.GetString("notion-database-id"); v != "" {
		cfg.NotionDatabaseID = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tasks := notion.NewClient(cfg.NotionAPIKey, cfg.NotionDatabaseID)
	return digest.New(ics.NewFetcher(), tasks, cfg.CalendarURLs), nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	appLog.SetLevel(viper.GetString("log-level"))

	today := viper.GetBool("today")
	if len(args) == 0 && !today {
		return errors.New("nothing to do: pass a search query or --today")
	}

	d, err := buildDigest()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if today {
		date, err := agendaDate()
		if err != nil {
			return err
		}
		report, err := d.Report(ctx, date)
		if err != nil {
			return err
		}
		fmt.Print(report)
	}

	if len(args) == 1 {
		return runSearch(ctx, d, args[0])
	}
	return nil
}

func runSearch(ctx context.Context, d *digest.Digest, query string) error {
	candidates, err := d.SearchCandidates(ctx)
	if err != nil {
		return err
	}
	results := fuzzy.Rank(query, candidates, viper.GetInt("k"))

	if viper.GetBool("table") {
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Candidate", "Relevance"})
		for _, r := range results {
			tw.AppendRow(table.Row{r.Candidate, r.Score})
		}
		tw.Render()
		return nil
	}

	fmt.Println("Search Results:")
	fmt.Println("---------------")
	for _, r := range results {
		fmt.Printf("- %s (relevance: %d)\n", r.Candidate, r.Score)
	}
	return nil
}

func agendaDate() (time.Time, error) {
	spec := viper.GetString("date")
	if spec == "" {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", spec, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", spec)
	}
	return date, nil
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the agenda on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			appLog.SetLevel(viper.GetString("log-level"))

			d, err := buildDigest()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				appLog.Info("signal received, shutting down", "signal", sig.String())
				cancel()
			}()

			printAgenda := func() {
				report, err := d.Report(ctx, time.Now())
				if err != nil {
					appLog.Error("agenda run failed", err)
					return
				}
				fmt.Print(report)
			}

			spec := viper.GetString("cron")
			c := cron.New()
			if _, err := c.AddFunc(spec, printAgenda); err != nil {
				return fmt.Errorf("invalid --cron %q: %w", spec, err)
			}

			appLog.Info("watch started", "cron", spec)
			printAgenda()
			c.Start()
			<-ctx.Done()

			stopCtx := c.Stop()
			<-stopCtx.Done()
			return nil
		},
	}
	cmd.Flags().String("cron", "0 8 * * *", "cron schedule for agenda runs")
	_ = viper.BindPFlag("cron", cmd.Flags().Lookup("cron"))
	return cmd
}
