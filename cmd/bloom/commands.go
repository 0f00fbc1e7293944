package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloomwell/bloom/pkg/app"
	"github.com/bloomwell/bloom/pkg/config"
	"github.com/bloomwell/bloom/pkg/engine/daily"
	"github.com/bloomwell/bloom/pkg/persona"
	"github.com/bloomwell/bloom/pkg/practice"
	"github.com/bloomwell/bloom/pkg/safety"
	"github.com/bloomwell/bloom/pkg/session"
)

type rootOptions struct {
	backend  string
	dbPath   string
	logLevel string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:          "bloom",
		Short:        "Mood journal and supportive companions",
		SilenceUsage: true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	rootCmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "storage backend: sqlite, redis or memory (default from BLOOM_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite database path (default from BLOOM_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (default from BLOOM_LOG_LEVEL, warn for commands)")

	rootCmd.AddCommand(checkinCmd(&opts))
	rootCmd.AddCommand(insightsCmd(&opts))
	rootCmd.AddCommand(dailyCmd(&opts))
	rootCmd.AddCommand(personasCmd())
	rootCmd.AddCommand(chatCmd(&opts))
	rootCmd.AddCommand(gratitudeCmd(&opts))
	rootCmd.AddCommand(bestCmd(&opts))
	rootCmd.AddCommand(pruneCmd(&opts))
	rootCmd.AddCommand(serveCmd(&opts))
	return rootCmd
}

// openApp loads config, applies flag overrides and builds the App.
func openApp(cmd *cobra.Command, opts *rootOptions, defaultLevel string) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	level := defaultLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger := config.NewLogger(cmd.ErrOrStderr(), level, cfg.LogFormat)
	return app.New(cmd.Context(), cfg, logger)
}

func printResources(w io.Writer, v safety.Verdict) {
	if !v.Crisis {
		return
	}
	fmt.Fprintln(w, "\nIt sounds like you are going through something really hard. You don't have to face it alone.")
	for _, r := range v.Resources {
		fmt.Fprintf(w, "  %s (%s): %s, %s\n", r.Name, r.Country, r.Phone, r.Hours)
	}
	fmt.Fprintln(w)
}

func checkinCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <mood 1-5> [note]",
		Short: "Record today's mood",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mood, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("mood must be a number from 1 to 5: %w", err)
			}
			a, err := openApp(cmd, opts, "warn")
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Checkins.Submit(cmd.Context(), mood, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printResources(w, res.Verdict)
			fmt.Fprintf(w, "Saved mood %d for %s\n", res.Entry.Mood, res.DateKey)
			return nil
		},
	}
}

func insightsCmd(opts *rootOptions) *cobra.Command {
	var window int
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show streak, average mood and trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, "warn")
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Insights.Compute(cmd.Context(), window)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Window:        %d days\n", snap.WindowDays)
			fmt.Fprintf(w, "Streak:        %d days\n", snap.StreakDays)
			fmt.Fprintf(w, "Average mood:  %.1f (%d entries)\n", snap.AverageMood, snap.Entries)
			fmt.Fprintf(w, "Trend:         %s\n", snap.Trend)
			fmt.Fprintf(w, "This week:     %d/%d check-ins\n", snap.WeeklyCheckIns, snap.WeeklyGoal)
			fmt.Fprintf(w, "Growth score:  %d\n", snap.GrowthScore)
			if len(snap.PositiveWords) > 0 {
				fmt.Fprintf(w, "Positive words: %s\n", strings.Join(snap.PositiveWords, ", "))
			}
			for _, ach := range snap.Achievements {
				if ach.Unlocked {
					fmt.Fprintf(w, "%s %s: %s\n", ach.Icon, ach.Title, ach.Description)
				}
			}
			if quote, err := a.Daily.SelectForToday(cmd.Context(), daily.CategoryQuote, daily.Quotes); err == nil {
				fmt.Fprintf(w, "\n%q\n", quote)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&window, "window", 0, "days to look back (default from BLOOM_INSIGHT_WINDOW)")
	return cmd
}

func dailyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daily [affirmation|quote]",
		Short: "Show today's affirmation or quote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := daily.CategoryAffirmation
			if len(args) == 1 {
				category = args[0]
			}
			list, ok := daily.Builtin(category)
			if !ok {
				return fmt.Errorf("unknown category %q", category)
			}
			a, err := openApp(cmd, opts, "warn")
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.Daily.SelectForToday(cmd.Context(), category, list)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func personasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the companions",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range persona.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-5s %s %s (%s): %s\n", d.Slug, d.Avatar, d.DisplayName, d.Role, d.Description)
			}
			return nil
		},
	}
}

func chatCmd(opts *rootOptions) *cobra.Command {
	var voiceOn bool
	cmd := &cobra.Command{
		Use:   "chat <persona>",
		Short: "Talk with a companion; one message per line, EOF to quit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := persona.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, opts, "warn")
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.Sessions.Open(id, voiceOn)
			if err != nil {
				return err
			}
			defer a.Sessions.Close(sess.ID())

			w := cmd.OutOrStdout()
			name := sess.Persona().DisplayName
			fmt.Fprintf(w, "%s: %s\n", name, sess.Messages()[0].Body)

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				turn, err := sess.Submit(cmd.Context(), sc.Text())
				switch {
				case errors.Is(err, session.ErrBlankMessage):
					continue
				case errors.Is(err, context.Canceled):
					return nil
				case err != nil:
					fmt.Fprintf(w, "(%s couldn't respond right now, please try again)\n", name)
					continue
				}
				printResources(w, turn.Verdict)
				fmt.Fprintf(w, "%s: %s\n", name, turn.Reply.Body)
			}
			return sc.Err()
		},
	}
	cmd.Flags().BoolVar(&voiceOn, "voice", false, "speak replies with BLOOM_SPEECH_COMMAND")
	return cmd
}

func gratitudeCmd(opts *rootOptions) *cobra.Command {
	var g practice.Gratitude
	cmd := &cobra.Command{
		Use:   "gratitude",
		Short: "Save today's gratitude practice",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, "warn")
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.Practice.SaveGratitude(cmd.Context(), g)
			if err != nil {
				return err
			}
			printResources(cmd.OutOrStdout(), v)
			fmt.Fprintln(cmd.OutOrStdout(), "Gratitude saved.")
			return nil
		},
	}
	cmd.Flags().StringVar(&g.Small, "small", "", "a small thing you're grateful for")
	cmd.Flags().StringVar(&g.Person, "person", "", "a person you're grateful for")
	cmd.Flags().StringVar(&g.Self, "self", "", "something about yourself you're grateful for")
	return cmd
}

func bestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "best [text]",
		Short: "Save or show the best thing of the day",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, "warn")
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			if len(args) > 0 {
				v, err := a.Practice.SaveBestThing(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				printResources(w, v)
			}
			today, yesterday, err := a.Practice.BestThings(cmd.Context())
			if err != nil {
				return err
			}
			if yesterday != "" {
				fmt.Fprintf(w, "Yesterday: %s\n", yesterday)
			}
			if today != "" {
				fmt.Fprintf(w, "Today:     %s\n", today)
			}
			return nil
		},
	}
}

func pruneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired daily caches (mood entries are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, "warn")
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Journal.PruneCaches(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached records\n", n)
			return nil
		},
	}
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts, "info")
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.Config.ListenAddr = addr
			}
			start := time.Now()
			a.Logger.Info("starting bloom server", "addr", a.Config.ListenAddr, "backend", a.Config.Backend)
			err = a.Serve(cmd.Context())
			a.Logger.Info("bloom server stopped", "uptime", time.Since(start).Round(time.Second))
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from BLOOM_LISTEN_ADDR)")
	return cmd
}
