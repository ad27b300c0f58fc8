package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/swiftscan/internal/contact"
	"github.com/joseph-ayodele/swiftscan/internal/email"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
	"github.com/joseph-ayodele/swiftscan/internal/export"
	"github.com/joseph-ayodele/swiftscan/internal/ingest"
	repo "github.com/joseph-ayodele/swiftscan/internal/repository"
)

func parseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Extract contact fields from OCR text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return a.printJSON(contact.Extract(raw))
		},
	}
}

func draftCmd(a *app) *cobra.Command {
	var (
		index  int
		sender entity.Sender
		to     string
	)
	cmd := &cobra.Command{
		Use:   "draft [file|-]",
		Short: "Draft a follow-up email for the card text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			c := contact.Extract(raw)
			d, next := email.Generate(c, sender, index)
			if to == "" {
				to = c.Email
			}
			return a.printJSON(map[string]any{
				"contact":   c,
				"template":  email.TemplateAt(index).Name,
				"draft":     d,
				"nextIndex": next,
				"mailto":    email.MailtoURL(to, d),
			})
		},
	}
	cmd.Flags().IntVar(&index, "template", 0, "Template rotation index")
	cmd.Flags().StringVar(&sender.Name, "from-name", "", "Sender name for the signature")
	cmd.Flags().StringVar(&sender.Role, "from-role", "", "Sender role for the signature")
	cmd.Flags().StringVar(&sender.Company, "from-company", "", "Sender company for the signature")
	cmd.Flags().StringVar(&to, "to", "", "Recipient (defaults to the extracted email)")
	return cmd
}

func scanCmd(a *app) *cobra.Command {
	var skipHidden bool
	cmd := &cobra.Command{
		Use:   "scan <file|dir>...",
		Short: "OCR card photos and store them in history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(db, a.logger)
			in := ingest.NewIngestor(a.processor(db), a.logger)

			var failed int
			for _, p := range args {
				info, err := os.Stat(p)
				if err != nil {
					return err
				}
				var results []ingest.Result
				if info.IsDir() {
					res, stats, err := in.IngestDirectory(ctx, p, skipHidden)
					if err != nil {
						return err
					}
					results = res
					failed += int(stats.Failed)
				} else {
					res, err := in.IngestPath(ctx, p)
					if err != nil {
						res.Err = err.Error()
						failed++
					}
					results = []ingest.Result{res}
				}
				for _, r := range results {
					switch {
					case r.Err != "":
						fmt.Fprintf(a.out, "FAIL  %s: %s\n", r.Path, r.Err)
					case r.Deduplicated:
						fmt.Fprintf(a.out, "DUP   %s (%s)\n", r.Path, r.RecordID)
					default:
						fmt.Fprintf(a.out, "OK    %s -> %s [%s]\n", r.Path, r.RecordID, r.Status)
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "Skip dot files and directories")
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	var (
		debounce time.Duration
		initial  bool
	)
	cmd := &cobra.Command{
		Use:   "watch [dir]...",
		Short: "Watch folders and scan new card photos as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := args
			if len(roots) == 0 {
				roots = a.cfg.Ingest.WatchDirs
			}
			if len(roots) == 0 {
				return errors.New("no directories given (args or WATCH_DIRS)")
			}
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(db, a.logger)

			fmt.Fprintf(a.out, "watching %v (ctrl-c to stop)\n", roots)
			err = ingest.NewIngestor(a.processor(db), a.logger).Watch(ctx, ingest.WatchConfig{
				Roots:       roots,
				InitialScan: initial,
				Debounce:    debounce,
				SkipHidden:  true,
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Coalesce bursts of file events")
	cmd.Flags().BoolVar(&initial, "initial", false, "Also scan files already present")
	return cmd
}

func historyCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List scan history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(db, a.logger)

			recs, err := repo.NewScanRepository(db, a.logger).List(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tNAME\tEMAIL\tCOMPANY\tSTATUS")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Time().Local().Format("2006-01-02 15:04"), r.Contact.Name, r.Contact.Email, r.Contact.Company, r.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", repo.DefaultListLimit, "Maximum records to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one history record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRecord(cmd.Context(), args[0], func(scans repo.ScanRepository, id uuid.UUID) error {
				rec, err := scans.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return a.printJSON(rec)
			})
		},
	}, &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRecord(cmd.Context(), args[0], func(scans repo.ScanRepository, id uuid.UUID) error {
				if err := scans.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted %s\n", id)
				return nil
			})
		},
	})
	return cmd
}

func (a *app) withRecord(ctx context.Context, raw string, fn func(repo.ScanRepository, uuid.UUID) error) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", raw, err)
	}
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer repo.Close(db, a.logger)
	return fn(repo.NewScanRepository(db, a.logger), id)
}

func exportCmd(a *app) *cobra.Command {
	var (
		out   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(db, a.logger)

			buf, err := export.NewService(repo.NewScanRepository(db, a.logger), a.logger).ExportHistoryXLSX(ctx, limit)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, buf, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "wrote %s (%d bytes)\n", out, len(buf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "swiftscan-history.xlsx", "Output file")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum records (0 = default)")
	return cmd
}

func settingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(db, a.logger)

			s, err := repo.NewSettingsRepository(db, a.logger).Get(ctx)
			if err != nil {
				return err
			}
			if s.GoogleUser != nil && s.GoogleUser.AccessToken != "" {
				s.GoogleUser.AccessToken = "(hidden)"
			}
			return a.printJSON(s)
		},
	}

	var (
		name, role, company string
		autoSend            bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the sender profile used in drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer repo.Close(db, a.logger)

			settings := repo.NewSettingsRepository(db, a.logger)
			s, err := settings.Get(ctx)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				s.UserName = name
			}
			if flags.Changed("role") {
				s.UserRole = role
			}
			if flags.Changed("company") {
				s.UserCompany = company
			}
			if flags.Changed("auto-send") {
				s.AutoSend = autoSend
			}
			if err := settings.Save(ctx, s); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "settings saved")
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "", "Your name")
	set.Flags().StringVar(&role, "role", "", "Your role")
	set.Flags().StringVar(&company, "company", "", "Your company")
	set.Flags().BoolVar(&autoSend, "auto-send", false, "Send through Gmail right after a capture")
	cmd.AddCommand(set)
	return cmd
}

func dbhealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Check the history store is reachable and migrated",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			defer repo.Close(db, a.logger)

			if err := repo.HealthCheck(ctx, db, 2*time.Second, a.logger); err != nil {
				return fmt.Errorf("DB health: FAIL (%w)", err)
			}
			recs, err := repo.NewScanRepository(db, a.logger).List(ctx, 1)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "DB health: OK (driver=%s, has history=%t)\n", a.cfg.Database.Driver, len(recs) > 0)
			return nil
		},
	}
}
