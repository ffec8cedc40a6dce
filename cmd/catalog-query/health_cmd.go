package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/catalog-query/internal/transport/checker"
	"github.com/kailas-cloud/catalog-query/internal/transport/ckan"
	"github.com/kailas-cloud/catalog-query/internal/usecase/health"
)

type healthView struct {
	Status health.Status                 `json:"status"`
	Checks map[string]health.CheckResult `json:"checks"`
	Errors map[string]string             `json:"errors,omitempty"`
}

func newHealthCmd(root *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the catalog, the compliance checker and the history store are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			client := ckan.NewClient(ckan.Config{
				BaseURL: cfg.Catalog.BaseURL,
				Timeout: cfg.Catalog.RequestTimeout(),
			})
			svc := health.New(client, checker.NewRunner(cfg.Checker.Binary, cfg.Checker.Timeout()))

			if cfg.History.Enabled() {
				store, err := openHistoryStore(cmd.Context(), cfg.History)
				if err == nil {
					defer store.Close()
					svc.WithHistory(store)
				} else {
					svc.WithHistory(unavailable{err})
				}
			}

			r := svc.Check(cmd.Context())
			if err := writeJSON(cmd.OutOrStdout(), healthView{Status: r.Status, Checks: r.Checks, Errors: r.Errors}); err != nil {
				return err
			}
			if r.Status != health.Healthy {
				return fmt.Errorf("health: %s", r.Status)
			}
			return nil
		},
	}
}

// unavailable reports a store that could not be opened.
type unavailable struct{ err error }

func (u unavailable) Ping(_ context.Context) error { return u.err }
