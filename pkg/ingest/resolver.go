package ingest

import (
	"context"
	"sync"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/jafarkuku/preqin-task/pkg/metrics"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// AssetClassAPI is the slice of the asset class client used by the resolver
type AssetClassAPI interface {
	ListAll(ctx context.Context) ([]models.AssetClass, error)
	BulkCreate(ctx context.Context, reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error)
	Create(ctx context.Context, req models.CreateAssetClassRequest) (*models.AssetClass, error)
}

// InvestorAPI is the slice of the investor client used by the resolver
type InvestorAPI interface {
	ListAll(ctx context.Context) ([]models.Investor, error)
	BulkCreate(ctx context.Context, reqs []models.CreateInvestorRequest) ([]models.Investor, error)
	Create(ctx context.Context, req models.CreateInvestorRequest) (*models.Investor, error)
}

// Resolution maps entity names to ids after a resolve pass
type Resolution struct {
	IDsByName map[string]string
	Created   int
	Attempted int
	Errors    []string
}

// Resolved returns the number of names that resolved to an id
func (r *Resolution) Resolved() int {
	return len(r.IDsByName)
}

// Resolver resolves entity names to ids, creating missing entities on the way.
// Resolution is fetch-then-create: list the existing entities, bulk create the
// missing ones, then fall back to individual creates for anything the bulk
// response did not cover.
type Resolver struct {
	assetClasses AssetClassAPI
	investors    InvestorAPI
	logger       ectologger.Logger
	concurrency  int
}

// NewResolver creates a new resolver. concurrency bounds the parallel
// individual-create fallback.
func NewResolver(assetClasses AssetClassAPI, investors InvestorAPI, logger ectologger.Logger, concurrency int) *Resolver {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Resolver{
		assetClasses: assetClasses,
		investors:    investors,
		logger:       logger,
		concurrency:  concurrency,
	}
}

// ResolveAssetClasses resolves asset class names to ids
func (r *Resolver) ResolveAssetClasses(ctx context.Context, names []string) *Resolution {
	ctx, span := tracing.StartSpan(ctx, "ingest.Resolver.ResolveAssetClasses")
	defer span.End()

	return resolveEntities(ctx, r, entityOps[string]{
		kind: "asset_class",
		noun: "asset class",
		name: func(name string) string { return name },
		list: func(ctx context.Context) ([]namedID, error) {
			existing, err := r.assetClasses.ListAll(ctx)
			return ectolinq.Map(existing, func(ac models.AssetClass) namedID {
				return namedID{Name: ac.Name, ID: ac.ID}
			}), err
		},
		bulk: func(ctx context.Context, missing []string) ([]string, error) {
			reqs := ectolinq.Map(missing, func(name string) models.CreateAssetClassRequest {
				return models.CreateAssetClassRequest{Name: name}
			})
			created, err := r.assetClasses.BulkCreate(ctx, reqs)
			return ectolinq.Map(created, func(ac models.AssetClass) string { return ac.ID }), err
		},
		one: func(ctx context.Context, name string) (string, error) {
			ac, err := r.assetClasses.Create(ctx, models.CreateAssetClassRequest{Name: name})
			if err != nil {
				return "", err
			}
			return ac.ID, nil
		},
	}, names)
}

// ResolveInvestors resolves investor candidates to ids
func (r *Resolver) ResolveInvestors(ctx context.Context, candidates []models.InvestorCandidate) *Resolution {
	ctx, span := tracing.StartSpan(ctx, "ingest.Resolver.ResolveInvestors")
	defer span.End()

	toRequest := func(candidate models.InvestorCandidate) models.CreateInvestorRequest {
		return models.CreateInvestorRequest{
			Name:      candidate.Name,
			Type:      candidate.Type,
			Country:   candidate.Country,
			DateAdded: candidate.DateAdded,
		}
	}

	return resolveEntities(ctx, r, entityOps[models.InvestorCandidate]{
		kind: "investor",
		noun: "investor",
		name: func(candidate models.InvestorCandidate) string { return candidate.Name },
		list: func(ctx context.Context) ([]namedID, error) {
			existing, err := r.investors.ListAll(ctx)
			return ectolinq.Map(existing, func(inv models.Investor) namedID {
				return namedID{Name: inv.Name, ID: inv.ID}
			}), err
		},
		bulk: func(ctx context.Context, missing []models.InvestorCandidate) ([]string, error) {
			created, err := r.investors.BulkCreate(ctx, ectolinq.Map(missing, toRequest))
			return ectolinq.Map(created, func(inv models.Investor) string { return inv.ID }), err
		},
		one: func(ctx context.Context, candidate models.InvestorCandidate) (string, error) {
			inv, err := r.investors.Create(ctx, toRequest(candidate))
			if err != nil {
				return "", err
			}
			return inv.ID, nil
		},
	}, candidates)
}

// namedID pairs an entity's unique name with its id
type namedID struct {
	Name string
	ID   string
}

// entityOps adapts one entity client to the shared resolve flow
type entityOps[C any] struct {
	kind string // metric label
	noun string // log and error text
	name func(C) string
	list func(ctx context.Context) ([]namedID, error)
	bulk func(ctx context.Context, missing []C) ([]string, error)
	one  func(ctx context.Context, candidate C) (string, error)
}

func resolveEntities[C any](ctx context.Context, r *Resolver, ops entityOps[C], candidates []C) *Resolution {
	res := &Resolution{IDsByName: make(map[string]string, len(candidates))}
	if len(candidates) == 0 {
		return res
	}

	existing, err := ops.list(ctx)
	if err != nil {
		// Resolve against the partial snapshot; creates are idempotent on name
		r.logger.WithContext(ctx).WithError(err).Warnf("%s listing incomplete, resolving against partial snapshot", ops.noun)
		res.Errors = append(res.Errors, ops.noun+" listing incomplete: "+err.Error())
	}
	for _, e := range existing {
		res.IDsByName[e.Name] = e.ID
		metrics.EntitiesResolvedTotal.WithLabelValues(ops.kind, "existing").Inc()
	}

	var missing []C
	for _, candidate := range candidates {
		if _, ok := res.IDsByName[ops.name(candidate)]; !ok {
			missing = append(missing, candidate)
		}
	}
	if len(missing) == 0 {
		return res
	}
	res.Attempted = len(missing)

	ids, err := ops.bulk(ctx, missing)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Warnf("%s bulk create failed, falling back to individual creates", ops.noun)
		res.Errors = append(res.Errors, ops.noun+" bulk create failed: "+err.Error())
	}

	// The bulk response is a positional prefix of the request
	for i := 0; i < len(ids) && i < len(missing); i++ {
		res.IDsByName[ops.name(missing[i])] = ids[i]
		res.Created++
		metrics.EntitiesResolvedTotal.WithLabelValues(ops.kind, "bulk").Inc()
	}

	var unresolvedNames []string
	unresolvedByName := make(map[string]C)
	for _, candidate := range missing {
		name := ops.name(candidate)
		if _, ok := res.IDsByName[name]; !ok {
			unresolvedNames = append(unresolvedNames, name)
			unresolvedByName[name] = candidate
		}
	}

	r.fallbackCreate(ctx, res, unresolvedNames, func(ctx context.Context, name string) (string, error) {
		id, err := ops.one(ctx, unresolvedByName[name])
		if err != nil {
			return "", err
		}
		metrics.EntitiesResolvedTotal.WithLabelValues(ops.kind, "fallback").Inc()
		return id, nil
	})

	return res
}

// fallbackCreate runs bounded concurrent individual creates for names the bulk
// path left unresolved. Failures are logged and the name stays unresolved.
func (r *Resolver) fallbackCreate(ctx context.Context, res *Resolution, names []string, create func(ctx context.Context, name string) (string, error)) {
	if len(names) == 0 {
		return
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, r.concurrency)
	)

	for _, name := range names {
		wg.Add(1)
		sem <- struct{}{}
		go func(name string) {
			defer wg.Done()
			defer func() { <-sem }()

			id, err := create(ctx, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.WithContext(ctx).WithError(err).WithField("name", name).Warn("individual create failed")
				res.Errors = append(res.Errors, "create failed for "+name+": "+err.Error())
				return
			}
			res.IDsByName[name] = id
			res.Created++
		}(name)
	}

	wg.Wait()
}
