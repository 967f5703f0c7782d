package orchestrator

import (
	"context"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the fetch fan-out used when none is configured.
const DefaultConcurrency = 4

// Aggregate fetches records for every group concurrently and buckets them.
//
// Records are attributed to the group they were fetched for. The call is
// all-or-nothing: the first fetch error cancels the remaining fetches and
// is returned as a *FetchError with no partial result. An empty group list
// yields an empty result.
func Aggregate(ctx context.Context, f Fetcher, groupIDs []string, concurrency int, opts ...bucket.Option) (bucket.Result, error) {
	if len(groupIDs) == 0 {
		return bucket.Aggregate(nil, opts...), nil
	}
	if f == nil {
		return bucket.Result{}, ErrNilFetcher
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	perGroup := make([][]bucket.Record, len(groupIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range groupIDs {
		g.Go(func() error {
			records, err := f.FetchRecords(gctx, id)
			if err != nil {
				return &FetchError{GroupID: id, Err: err}
			}

			owned := make([]bucket.Record, len(records))
			for j, r := range records {
				r.GroupID = id
				owned[j] = r
			}
			perGroup[i] = owned
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return bucket.Result{}, err
	}

	total := 0
	for _, records := range perGroup {
		total += len(records)
	}
	all := make([]bucket.Record, 0, total)
	for _, records := range perGroup {
		all = append(all, records...)
	}

	return bucket.Aggregate(all, opts...), nil
}

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(groupIDs []string) []string {
	seen := make(map[string]struct{}, len(groupIDs))
	out := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
