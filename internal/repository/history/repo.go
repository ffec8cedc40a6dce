// Package history persists per-run compliance summaries in Valkey/Redis.
//
// Layout:
//
//	<prefix>history:<org>:<run_id>  hash of run fields and "avg:<test>" scores, expires after ttl
//	<prefix>runs:<org>              list of run ids, newest first, capped at maxRuns
package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/catalog-query/internal/db"
	"github.com/kailas-cloud/catalog-query/internal/domain"
)

const (
	maxRuns   = 500
	avgPrefix = "avg:"

	fieldRunID     = "run_id"
	fieldAction    = "action"
	fieldOrg       = "organization"
	fieldStartedAt = "started_at"
	fieldChecks    = "checks"
	fieldFailures  = "failures"
)

// store is the consumer interface for history operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Repo stores run summaries.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a history repository. A non-positive ttl keeps entries forever.
func New(s store, prefix string, ttl time.Duration) *Repo {
	return &Repo{store: s, prefix: prefix, ttl: ttl}
}

func (r *Repo) runKey(org, runID string) string {
	return r.prefix + "history:" + org + ":" + runID
}

func (r *Repo) listKey(org string) string {
	return r.prefix + "runs:" + org
}

// Record stores one run summary and indexes it under its organization.
func (r *Repo) Record(ctx context.Context, sum domain.RunSummary) error {
	if sum.RunID == "" {
		return errors.New("history: run id is required")
	}
	key := r.runKey(sum.Organization, sum.RunID)

	if err := r.store.HSet(ctx, key, encode(sum)); err != nil {
		return fmt.Errorf("history HSET %s: %w", key, err)
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
			return fmt.Errorf("history EXPIRE %s: %w", key, err)
		}
	}

	list := r.listKey(sum.Organization)
	if err := r.store.LPush(ctx, list, sum.RunID); err != nil {
		return fmt.Errorf("history LPUSH %s: %w", list, err)
	}
	if err := r.store.LTrim(ctx, list, 0, maxRuns-1); err != nil {
		return fmt.Errorf("history LTRIM %s: %w", list, err)
	}
	return nil
}

// Recent returns up to n summaries of an organization, newest first.
// Runs whose hash has expired are skipped.
func (r *Repo) Recent(ctx context.Context, org string, n int) ([]domain.RunSummary, error) {
	if n <= 0 {
		return nil, nil
	}
	list := r.listKey(org)
	ids, err := r.store.LRange(ctx, list, 0, int64(n-1))
	if err != nil {
		return nil, fmt.Errorf("history LRANGE %s: %w", list, err)
	}

	out := make([]domain.RunSummary, 0, len(ids))
	for _, id := range ids {
		fields, err := r.store.HGetAll(ctx, r.runKey(org, id))
		if errors.Is(err, db.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("history HGETALL %s: %w", id, err)
		}
		sum, err := decode(fields)
		if err != nil {
			return nil, fmt.Errorf("history decode %s: %w", id, err)
		}
		out = append(out, sum)
	}
	return out, nil
}

func encode(sum domain.RunSummary) map[string]string {
	fields := map[string]string{
		fieldRunID:     sum.RunID,
		fieldAction:    sum.Action,
		fieldOrg:       sum.Organization,
		fieldStartedAt: sum.StartedAt.UTC().Format(time.RFC3339),
		fieldChecks:    strconv.Itoa(sum.Checks),
		fieldFailures:  strconv.Itoa(sum.Failures),
	}
	for _, avg := range sum.Averages {
		test := avg.Result.TestName
		v := ""
		if !math.IsNaN(avg.ScorePercent) {
			v = strconv.FormatFloat(avg.ScorePercent, 'f', -1, 64)
		}
		fields[avgPrefix+test] = v
	}
	return fields
}

func decode(fields map[string]string) (domain.RunSummary, error) {
	sum := domain.RunSummary{
		RunID:        fields[fieldRunID],
		Action:       fields[fieldAction],
		Organization: fields[fieldOrg],
	}

	var err error
	if sum.StartedAt, err = time.Parse(time.RFC3339, fields[fieldStartedAt]); err != nil {
		return domain.RunSummary{}, fmt.Errorf("started_at: %w", err)
	}
	if sum.Checks, err = strconv.Atoi(fields[fieldChecks]); err != nil {
		return domain.RunSummary{}, fmt.Errorf("checks: %w", err)
	}
	if sum.Failures, err = strconv.Atoi(fields[fieldFailures]); err != nil {
		return domain.RunSummary{}, fmt.Errorf("failures: %w", err)
	}

	for k, v := range fields {
		test, ok := strings.CutPrefix(k, avgPrefix)
		if !ok {
			continue
		}
		score := math.NaN()
		if v != "" {
			if score, err = strconv.ParseFloat(v, 64); err != nil {
				return domain.RunSummary{}, fmt.Errorf("%s: %w", k, err)
			}
		}
		sum.Averages = append(sum.Averages, domain.ReportRow{
			Key:          test + domain.AverageSuffix,
			Average:      true,
			Result:       domain.CheckResult{TestName: test},
			ScorePercent: score,
		})
	}
	slices.SortFunc(sum.Averages, func(a, b domain.ReportRow) int { return strings.Compare(a.Key, b.Key) })
	return sum, nil
}
