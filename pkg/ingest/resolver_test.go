package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarkuku/preqin-task/pkg/models"
)

type fakeAssetClassAPI struct {
	mu       sync.Mutex
	existing []models.AssetClass
	listErr  error
	bulkFn   func(reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error)
	createFn func(req models.CreateAssetClassRequest) (*models.AssetClass, error)

	bulkCalls   int
	createCalls []string
}

func (f *fakeAssetClassAPI) ListAll(ctx context.Context) ([]models.AssetClass, error) {
	return f.existing, f.listErr
}

func (f *fakeAssetClassAPI) BulkCreate(ctx context.Context, reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error) {
	f.mu.Lock()
	f.bulkCalls++
	f.mu.Unlock()
	if f.bulkFn != nil {
		return f.bulkFn(reqs)
	}
	out := make([]models.AssetClass, len(reqs))
	for i, req := range reqs {
		out[i] = models.AssetClass{ID: "ac-" + req.Name, Name: req.Name}
	}
	return out, nil
}

func (f *fakeAssetClassAPI) Create(ctx context.Context, req models.CreateAssetClassRequest) (*models.AssetClass, error) {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, req.Name)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &models.AssetClass{ID: "ac-" + req.Name, Name: req.Name}, nil
}

type fakeInvestorAPI struct {
	mu       sync.Mutex
	existing []models.Investor
	listErr  error
	bulkFn   func(reqs []models.CreateInvestorRequest) ([]models.Investor, error)
	createFn func(req models.CreateInvestorRequest) (*models.Investor, error)

	createCalls []string
}

func (f *fakeInvestorAPI) ListAll(ctx context.Context) ([]models.Investor, error) {
	return f.existing, f.listErr
}

func (f *fakeInvestorAPI) BulkCreate(ctx context.Context, reqs []models.CreateInvestorRequest) ([]models.Investor, error) {
	if f.bulkFn != nil {
		return f.bulkFn(reqs)
	}
	out := make([]models.Investor, len(reqs))
	for i, req := range reqs {
		out[i] = models.Investor{ID: "inv-" + req.Name, Name: req.Name}
	}
	return out, nil
}

func (f *fakeInvestorAPI) Create(ctx context.Context, req models.CreateInvestorRequest) (*models.Investor, error) {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, req.Name)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &models.Investor{ID: "inv-" + req.Name, Name: req.Name}, nil
}

func TestResolveAssetClasses_ExistingSkipped(t *testing.T) {
	assetClasses := &fakeAssetClassAPI{
		existing: []models.AssetClass{{ID: "ac-1", Name: "Infrastructure"}},
	}
	r := NewResolver(assetClasses, &fakeInvestorAPI{}, testLogger(), 2)

	res := r.ResolveAssetClasses(context.Background(), []string{"Infrastructure", "Private Equity"})

	assert.Equal(t, 2, res.Resolved())
	assert.Equal(t, "ac-1", res.IDsByName["Infrastructure"])
	assert.Equal(t, "ac-Private Equity", res.IDsByName["Private Equity"])
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Attempted)
	assert.Empty(t, res.Errors)
}

func TestResolveAssetClasses_AllExistingNoCreates(t *testing.T) {
	assetClasses := &fakeAssetClassAPI{
		existing: []models.AssetClass{{ID: "ac-1", Name: "Hedge Funds"}},
	}
	r := NewResolver(assetClasses, &fakeInvestorAPI{}, testLogger(), 2)

	res := r.ResolveAssetClasses(context.Background(), []string{"Hedge Funds"})

	assert.Equal(t, 1, res.Resolved())
	assert.Equal(t, 0, assetClasses.bulkCalls)
	assert.Empty(t, assetClasses.createCalls)
}

func TestResolveAssetClasses_PartialListStillResolves(t *testing.T) {
	assetClasses := &fakeAssetClassAPI{
		existing: []models.AssetClass{{ID: "ac-1", Name: "Infrastructure"}},
		listErr:  errors.New("page 2 unavailable"),
	}
	r := NewResolver(assetClasses, &fakeInvestorAPI{}, testLogger(), 2)

	res := r.ResolveAssetClasses(context.Background(), []string{"Infrastructure", "Natural Resources"})

	assert.Equal(t, 2, res.Resolved())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "listing incomplete")
}

func TestResolveAssetClasses_ShortBulkResponseFallsBack(t *testing.T) {
	assetClasses := &fakeAssetClassAPI{
		bulkFn: func(reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error) {
			// Only the first request succeeds
			return []models.AssetClass{{ID: "ac-first", Name: reqs[0].Name}}, nil
		},
	}
	r := NewResolver(assetClasses, &fakeInvestorAPI{}, testLogger(), 2)

	res := r.ResolveAssetClasses(context.Background(), []string{"A", "B", "C"})

	assert.Equal(t, 3, res.Resolved())
	assert.Equal(t, "ac-first", res.IDsByName["A"])
	assert.ElementsMatch(t, []string{"B", "C"}, assetClasses.createCalls)
}

func TestResolveAssetClasses_FallbackPartialFailure(t *testing.T) {
	assetClasses := &fakeAssetClassAPI{
		bulkFn: func(reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error) {
			return nil, errors.New("bulk endpoint down")
		},
		createFn: func(req models.CreateAssetClassRequest) (*models.AssetClass, error) {
			if req.Name == "B" {
				return nil, errors.New("create rejected")
			}
			return &models.AssetClass{ID: "ac-" + req.Name, Name: req.Name}, nil
		},
	}
	r := NewResolver(assetClasses, &fakeInvestorAPI{}, testLogger(), 2)

	res := r.ResolveAssetClasses(context.Background(), []string{"A", "B", "C", "D"})

	assert.Equal(t, 3, res.Resolved())
	_, ok := res.IDsByName["B"]
	assert.False(t, ok)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 4, res.Attempted)
	assert.NotEmpty(t, res.Errors)
}

func TestResolveInvestors_CarriesCandidateAttributes(t *testing.T) {
	var gotReqs []models.CreateInvestorRequest
	investors := &fakeInvestorAPI{
		bulkFn: func(reqs []models.CreateInvestorRequest) ([]models.Investor, error) {
			gotReqs = reqs
			out := make([]models.Investor, len(reqs))
			for i, req := range reqs {
				out[i] = models.Investor{ID: "inv-" + req.Name, Name: req.Name}
			}
			return out, nil
		},
	}
	r := NewResolver(&fakeAssetClassAPI{}, investors, testLogger(), 2)

	res := r.ResolveInvestors(context.Background(), []models.InvestorCandidate{
		{Name: "Ioo Gryffindor fund", Type: "fund manager", Country: "Singapore"},
	})

	assert.Equal(t, 1, res.Resolved())
	require.Len(t, gotReqs, 1)
	assert.Equal(t, "fund manager", gotReqs[0].Type)
	assert.Equal(t, "Singapore", gotReqs[0].Country)
}

func TestResolveInvestors_EmptyInput(t *testing.T) {
	r := NewResolver(&fakeAssetClassAPI{}, &fakeInvestorAPI{}, testLogger(), 2)

	res := r.ResolveInvestors(context.Background(), nil)

	assert.Equal(t, 0, res.Resolved())
	assert.Empty(t, res.Errors)
}
