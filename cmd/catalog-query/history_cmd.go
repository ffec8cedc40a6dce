package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/catalog-query/internal/config"
	dbRedis "github.com/kailas-cloud/catalog-query/internal/db/redis"
	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/repository/history"
)

const historyReadinessTimeout = 5 * time.Second

// runView is the JSON shape of a stored run. Averages that could not be computed are null.
type runView struct {
	RunID        string              `json:"run_id"`
	Action       string              `json:"action"`
	Organization string              `json:"organization"`
	StartedAt    time.Time           `json:"started_at"`
	Checks       int                 `json:"checks"`
	Failures     int                 `json:"failures"`
	Averages     map[string]*float64 `json:"averages"`
}

func newRunView(sum domain.RunSummary) runView {
	v := runView{
		RunID:        sum.RunID,
		Action:       sum.Action,
		Organization: sum.Organization,
		StartedAt:    sum.StartedAt,
		Checks:       sum.Checks,
		Failures:     sum.Failures,
		Averages:     make(map[string]*float64, len(sum.Averages)),
	}
	for _, row := range sum.Averages {
		if math.IsNaN(row.ScorePercent) {
			v.Averages[row.Result.TestName] = nil
			continue
		}
		score := row.ScorePercent
		v.Averages[row.Result.TestName] = &score
	}
	return v
}

func newHistoryCmd(root *options) *cobra.Command {
	var (
		organization string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent compliance runs of an organization as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *root)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.History.Enabled() {
				return errors.New("history is disabled: set history.addrs in the config")
			}

			store, err := openHistoryStore(cmd.Context(), cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := history.New(store, cfg.History.KeyPrefix, cfg.History.TTL()).
				Recent(cmd.Context(), organization, limit)
			if err != nil {
				return err
			}

			views := make([]runView, 0, len(runs))
			for _, r := range runs {
				views = append(views, newRunView(r))
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().StringVarP(&organization, "name", "n", "", "Organization display name (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// openHistoryStore connects to the history Valkey/Redis and waits until it answers.
func openHistoryStore(ctx context.Context, cfg config.HistoryConfig) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	if err := store.WaitForReady(ctx, historyReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("history store not ready: %w", err)
	}
	return store, nil
}
