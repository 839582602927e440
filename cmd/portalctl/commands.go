package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/terra-clan/consult-portal/internal/intake"
	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/internal/pricing"
	"github.com/terra-clan/consult-portal/pkg/client"
)

type globalOptions struct {
	backendURL string
	token      string
	timeout    time.Duration
}

func (o *globalOptions) client() (*client.Client, error) {
	if o.backendURL == "" {
		return nil, errors.New("backend URL is required (--backend or BACKEND_URL)")
	}
	return client.NewClient(o.backendURL, o.token, client.WithTimeout(o.timeout)), nil
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Consult portal catalog and intake CLI",
		Long: `portalctl talks to the marketplace backend with a user token to inspect service
templates, manage duration options and consultant pricing, and report intake progress.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.backendURL, "backend", os.Getenv("BACKEND_URL"), "Marketplace backend base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("BACKEND_TOKEN"), "Bearer token for the backend")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Backend request timeout")
	cmd.AddCommand(
		newTemplatesCmd(opts),
		newDurationsCmd(opts),
		newPricingCmd(opts),
		newIntakeCmd(opts),
	)
	return cmd
}

func newTemplatesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect service templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates with their duration option counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := opts.client()
			if err != nil {
				return err
			}
			templates, err := backend.ListServiceTemplates(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list templates: %w", err)
			}
			overview := pricing.CountDurationOptions(cmd.Context(), backend, templates)

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tPRICE RANGE\tDURATIONS\tACTIVE")
			for _, t := range overview {
				fmt.Fprintf(w, "%s\t%s\t%.2f-%.2f\t%d\t%t\n",
					t.ID, t.Name, t.MinPrice, t.MaxPrice, t.DurationOptionCount, t.IsActive)
			}
			return w.Flush()
		},
	})
	return cmd
}

func newDurationsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "durations",
		Short: "Manage duration options of a service template",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <template-id>",
		Short: "List duration options of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := durationScreen(cmd, opts, args[0])
			if err != nil {
				return err
			}
			printDurations(cmd.OutOrStdout(), screen.Options())
			return nil
		},
	})

	var file string
	create := &cobra.Command{
		Use:   "create <template-id>",
		Short: "Create a duration option from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input models.DurationOptionInput
			if err := readYAML(file, &input); err != nil {
				return err
			}
			input.ServiceTemplateID = args[0]

			screen, err := durationScreen(cmd, opts, args[0])
			if err != nil {
				return err
			}
			if err := screen.Create(cmd.Context(), input); err != nil {
				return err
			}
			printDurations(cmd.OutOrStdout(), screen.Options())
			return nil
		},
	}
	create.Flags().StringVarP(&file, "file", "f", "", "YAML file with the duration option")
	_ = create.MarkFlagRequired("file")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <template-id> <option-id>",
		Short: "Delete a duration option",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := durationScreen(cmd, opts, args[0])
			if err != nil {
				return err
			}
			if err := screen.Delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			printDurations(cmd.OutOrStdout(), screen.Options())
			return nil
		},
	})
	return cmd
}

func newPricingCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Show or replace the pricing of a consultant service",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <consultant-service-id>",
		Short: "Show duration options and current prices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			screen, err := pricingScreen(cmd, opts, args[0])
			if err != nil {
				return err
			}
			printPricing(cmd.OutOrStdout(), screen)
			return nil
		},
	})

	var file string
	set := &cobra.Command{
		Use:   "set <consultant-service-id>",
		Short: "Replace the pricing set from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []models.PricingOption
			if err := readYAML(file, &entries); err != nil {
				return err
			}
			screen, err := pricingScreen(cmd, opts, args[0])
			if err != nil {
				return err
			}
			if err := screen.SetPricing(cmd.Context(), entries); err != nil {
				var verr *pricing.ValidationError
				if errors.As(err, &verr) {
					for _, v := range verr.Violations {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", v.DurationOptionID, v.Message)
					}
				}
				return err
			}
			printPricing(cmd.OutOrStdout(), screen)
			return nil
		},
	}
	set.Flags().StringVarP(&file, "file", "f", "", "YAML file with a list of pricing rows")
	_ = set.MarkFlagRequired("file")
	cmd.AddCommand(set)
	return cmd
}

func newIntakeCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Inspect the intake of the token's user",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "progress",
		Short: "Show per-stage completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := opts.client()
			if err != nil {
				return err
			}
			store := intake.NewStore(backend)
			if err := store.Load(cmd.Context()); err != nil {
				return err
			}
			progress := store.Progress()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Completion: %.2f%%\n", progress.CompletionPercentage)
			if progress.NextIncompleteStage > 0 {
				fmt.Fprintf(out, "Next stage: %d\n", progress.NextIncompleteStage)
			}
			w := newTable(out)
			fmt.Fprintln(w, "STAGE\tCOMPLETE\tMISSING\tNAME")
			for _, s := range progress.Stages {
				fmt.Fprintf(w, "%d\t%t\t%d\t%s\n", s.Stage, s.Complete, len(s.Missing), s.Name)
			}
			return w.Flush()
		},
	})
	return cmd
}

func durationScreen(cmd *cobra.Command, opts *globalOptions, templateID string) (*pricing.DurationOptionScreen, error) {
	backend, err := opts.client()
	if err != nil {
		return nil, err
	}
	screen := pricing.NewDurationOptionScreen(backend, templateID)
	if err := screen.Refresh(cmd.Context()); err != nil {
		return nil, err
	}
	return screen, nil
}

func pricingScreen(cmd *cobra.Command, opts *globalOptions, serviceID string) (*pricing.PricingScreen, error) {
	backend, err := opts.client()
	if err != nil {
		return nil, err
	}
	service, err := backend.GetConsultantService(cmd.Context(), serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get consultant service: %w", err)
	}
	screen := pricing.NewPricingScreen(backend, *service)
	if err := screen.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return screen, nil
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printDurations(out io.Writer, options []models.ServiceDurationOption) {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tLABEL\tMINUTES\tPRICE RANGE\tACTIVE")
	for _, o := range options {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f-%.2f\t%t\n",
			o.ID, o.DurationLabel, o.DurationMinutes, o.MinPrice, o.MaxPrice, o.IsActive)
	}
	w.Flush()
}

func printPricing(out io.Writer, screen *pricing.PricingScreen) {
	prices := make(map[string]models.ConsultantServicePricing)
	for _, p := range screen.Pricing() {
		prices[p.DurationOptionID] = p
	}

	w := newTable(out)
	fmt.Fprintln(w, "OPTION\tLABEL\tALLOWED\tPRICE\tACTIVE")
	for _, o := range screen.Options() {
		p, ok := prices[o.ID]
		price := "-"
		if ok {
			price = fmt.Sprintf("%.2f", p.Price)
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f-%.2f\t%s\t%t\n",
			o.ID, o.DurationLabel, o.MinPrice, o.MaxPrice, price, ok && p.IsActive)
	}
	w.Flush()
}
