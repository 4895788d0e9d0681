package cli

import (
	"fmt"

	"github.com/alexanderramin/obra/internal/cli/formatter"
	"github.com/alexanderramin/obra/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCertCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cert",
		Aliases: []string{"certification"},
		Short:   "Draft, issue and audit progress certifications",
	}

	cmd.AddCommand(
		newCertCreateCmd(app),
		newCertLineCmd(app),
		newCertRemoveLineCmd(app),
		newCertRefreshCmd(app),
		newCertSubmitCmd(app),
		newCertApproveCmd(app),
		newCertRejectCmd(app),
		newCertVoidCmd(app),
		newCertVerifyCmd(app),
		newCertShowCmd(app),
		newCertListCmd(app),
	)

	return cmd
}

func newCertCreateCmd(app *App) *cobra.Command {
	var version, by string
	var period domain.Period

	cmd := &cobra.Command{
		Use:   "create PROJECT",
		Short: "Open a draft certification for a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveProject(ctx, app, args[0])
			if err != nil {
				return err
			}

			var v *domain.BudgetVersion
			if version != "" {
				v, err = resolveVersion(ctx, app, p.ID, version)
				if err != nil {
					return err
				}
			} else {
				versions, err := app.Budgets.ListVersions(ctx, p.ID)
				if err != nil {
					return err
				}
				if v = latestLockedVersion(versions); v == nil {
					return fmt.Errorf("project %s has no locked budget version; pass --version", p.DisplayID())
				}
			}

			c, err := app.Certifications.Create(ctx, p.ID, v.ID, period, domain.CoalesceStr(by, app.Actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created certification #%d for %s against %s\n", c.Number, c.Period, v.VersionCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Budget version code (default: latest locked version)")
	cmd.Flags().Var(&periodValue{p: &period}, "period", "Certified month")
	cmd.Flags().StringVar(&by, "by", "", "Author (default: configured actor)")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func newCertLineCmd(app *App) *cobra.Command {
	var pct decimal.Decimal

	cmd := &cobra.Command{
		Use:   "line PROJECT NUMBER CODE",
		Short: "Certify a task's progress for the period",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, c, err := resolveCert(ctx, app, args[0], args[1])
			if err != nil {
				return err
			}
			n, err := resolveNode(ctx, app, p.ID, args[2])
			if err != nil {
				return err
			}
			line, err := app.Certifications.AddOrUpdateLine(ctx, c.ID, n.ID, pct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s: %s this period, %s cumulative, %s\n",
				c.Number, n.Code,
				formatter.Pct(line.PeriodProgressPct),
				formatter.Pct(line.TotalProgressPct),
				formatter.Money(line.PeriodAmount))
			return nil
		},
	}

	cmd.Flags().Var(newDecimalValue("0", &pct), "pct", "Progress percentage achieved this period")
	_ = cmd.MarkFlagRequired("pct")

	return cmd
}

func newCertRemoveLineCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-line PROJECT NUMBER CODE",
		Short: "Remove a task from an editable certification",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, c, err := resolveCert(ctx, app, args[0], args[1])
			if err != nil {
				return err
			}
			n, err := resolveNode(ctx, app, p.ID, args[2])
			if err != nil {
				return err
			}
			if err := app.Certifications.RemoveLine(ctx, c.ID, n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from certification #%d\n", n.Code, c.Number)
			return nil
		},
	}
}

func newCertRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh PROJECT NUMBER",
		Short: "Recompute an editable certification against the latest approved progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := resolveCert(cmd.Context(), app, args[0], args[1])
			if err != nil {
				return err
			}
			lines, err := app.Certifications.Recompute(cmd.Context(), c.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d lines of certification #%d\n", len(lines), c.Number)
			return nil
		},
	}
}

func newCertSubmitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit PROJECT NUMBER",
		Short: "Submit a certification for approval",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := resolveCert(cmd.Context(), app, args[0], args[1])
			if err != nil {
				return err
			}
			c, err = app.Certifications.Submit(cmd.Context(), c.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted certification #%d\n", c.Number)
			return nil
		},
	}
}

func newCertApproveCmd(app *App) *cobra.Command {
	var by string
	var yes bool

	cmd := &cobra.Command{
		Use:   "approve PROJECT NUMBER",
		Short: "Approve, seal and issue a submitted certification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := resolveCert(cmd.Context(), app, args[0], args[1])
			if err != nil {
				return err
			}
			if err := confirm(app, yes,
				fmt.Sprintf("Approve certification #%d for %s?", c.Number, c.Period),
				"Approved certifications are sealed and cannot be edited."); err != nil {
				return err
			}
			c, err = app.Certifications.Approve(cmd.Context(), c.ID, domain.CoalesceStr(by, app.Actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved certification #%d: %s (seal %s)\n",
				c.Number, formatter.Money(c.TotalAmount), formatter.TruncID(c.IntegritySeal))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Approver (default: configured actor)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newCertRejectCmd(app *App) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "reject PROJECT NUMBER",
		Short: "Send a submitted certification back for correction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := resolveCert(cmd.Context(), app, args[0], args[1])
			if err != nil {
				return err
			}
			c, err = app.Certifications.Reject(cmd.Context(), c.ID, comment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected certification #%d\n", c.Number)
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Reason for rejection")
	_ = cmd.MarkFlagRequired("comment")

	return cmd
}

func newCertVoidCmd(app *App) *cobra.Command {
	var by string
	var yes bool

	cmd := &cobra.Command{
		Use:   "void PROJECT NUMBER",
		Short: "Void the latest approved certification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := resolveCert(cmd.Context(), app, args[0], args[1])
			if err != nil {
				return err
			}
			if err := confirm(app, yes,
				fmt.Sprintf("Void certification #%d?", c.Number),
				"Its progress stops counting as the baseline for later certifications."); err != nil {
				return err
			}
			c, err = app.Certifications.Void(cmd.Context(), c.ID, domain.CoalesceStr(by, app.Actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Voided certification #%d\n", c.Number)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Actor recorded on the event (default: configured actor)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newCertVerifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify PROJECT NUMBER",
		Short: "Recompute the integrity seal and compare it with the stored one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := resolveCert(cmd.Context(), app, args[0], args[1])
			if err != nil {
				return err
			}
			ok, err := app.Certifications.VerifySeal(cmd.Context(), c.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("certification #%d: %w", c.Number, domain.ErrSealMismatch)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Certification #%d seal verified\n", c.Number)
			return nil
		},
	}
}

func newCertShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT NUMBER",
		Short: "Show a certification and its lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, c, err := resolveCert(ctx, app, args[0], args[1])
			if err != nil {
				return err
			}
			lines, err := app.Certifications.Lines(ctx, c.ID)
			if err != nil {
				return err
			}
			nodes, err := nodeIndex(ctx, app, p.ID)
			if err != nil {
				return err
			}

			view := formatter.CertificationView{Cert: c, Lines: lines, Nodes: nodes}
			if c.Sealed() {
				ok, err := app.Certifications.VerifySeal(ctx, c.ID)
				if err != nil {
					return err
				}
				view.SealOK = &ok
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCertification(view))
			return nil
		},
	}
}

func newCertListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List a project's certifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			certs, err := app.Certifications.List(cmd.Context(), p.ID)
			if err != nil {
				return err
			}
			if len(certs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No certifications found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCertificationList(certs))
			return nil
		},
	}
}
