package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarkuku/preqin-task/pkg/models"
)

func newTestProcessor(assetClasses *fakeAssetClassAPI, investors *fakeInvestorAPI, commitments *fakeCommitmentAPI) *Processor {
	logger := testLogger()
	return NewProcessor(
		NewParser(logger),
		NewResolver(assetClasses, investors, logger, 2),
		commitments,
		logger,
	)
}

func TestProcess_HappyPath(t *testing.T) {
	csv := sampleHeader +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,1000000,EUR\n" +
		"Ibx Skywalker ltd,asset manager,United States,1997-07-21,Private Equity,2500000,USD\n"

	commitments := &fakeCommitmentAPI{}
	p := newTestProcessor(&fakeAssetClassAPI{}, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusCompleted, report.Status)
	assert.Equal(t, "job-1", report.JobID)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 2, report.ValidRows)
	assert.Equal(t, 2, report.CommitmentsCreated)
	assert.Equal(t, 0, report.CommitmentsDeduped)
	assert.Equal(t, "2/2 (100.0%)", report.CommitmentSuccessRate)
	assert.Empty(t, report.Errors)
	assert.False(t, report.CompletedAt.Before(report.StartedAt))

	// The whole filtered batch goes out as one bulk request
	assert.Equal(t, 1, commitments.bulkCalls)
	assert.Len(t, commitments.created, 2)
}

func TestProcess_ParseFailureFailsRun(t *testing.T) {
	csv := "Investor Name,Commitment Asset Class\nCza Weasley fund,Hedge Funds\n"

	commitments := &fakeCommitmentAPI{}
	p := newTestProcessor(&fakeAssetClassAPI{}, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusFailed, report.Status)
	assert.NotEmpty(t, report.Errors)
	assert.Empty(t, commitments.created)
}

func TestProcess_NoValidRowsFailsBeforeAnyRemoteCall(t *testing.T) {
	csv := sampleHeader + ",fund manager,UK,2001-01-01,Hedge Funds,100,GBP\n"

	assetClasses := &fakeAssetClassAPI{}
	commitments := &fakeCommitmentAPI{}
	p := newTestProcessor(assetClasses, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusFailed, report.Status)
	assert.Contains(t, report.Errors, "upload contains no valid rows")
	assert.Equal(t, 0, assetClasses.bulkCalls)
	assert.Empty(t, assetClasses.createCalls)
	assert.Empty(t, commitments.created)
}

func TestProcess_ZeroAssetClassResolutionFailsRun(t *testing.T) {
	csv := sampleHeader + "Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,100,GBP\n"

	assetClasses := &fakeAssetClassAPI{
		bulkFn: func(reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error) {
			return nil, errors.New("service down")
		},
		createFn: func(req models.CreateAssetClassRequest) (*models.AssetClass, error) {
			return nil, errors.New("service down")
		},
	}
	commitments := &fakeCommitmentAPI{}
	p := newTestProcessor(assetClasses, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusFailed, report.Status)
	assert.Contains(t, report.Errors, "no asset classes could be resolved")
	assert.Empty(t, commitments.created)
}

func TestProcess_DuplicateRowsDeduped(t *testing.T) {
	csv := sampleHeader +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,1000000,EUR\n" +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,1000000,EUR\n" +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,1000000.00,EUR\n"

	commitments := &fakeCommitmentAPI{}
	p := newTestProcessor(&fakeAssetClassAPI{}, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusCompleted, report.Status)
	assert.Equal(t, 1, report.CommitmentsCreated)
	assert.Equal(t, 2, report.CommitmentsDeduped)
	assert.Len(t, commitments.created, 1)
}

func TestProcess_ExistingCommitmentsDeduped(t *testing.T) {
	csv := sampleHeader + "Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,1000000,EUR\n"

	commitments := &fakeCommitmentAPI{
		existing: []models.Commitment{{
			InvestorID:   "inv-Ioo Gryffindor fund",
			AssetClassID: "ac-Infrastructure",
			Amount:       decimal.NewFromInt(1000000),
			Currency:     "EUR",
		}},
	}
	p := newTestProcessor(&fakeAssetClassAPI{}, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusCompleted, report.Status)
	assert.Equal(t, 0, report.CommitmentsCreated)
	assert.Equal(t, 1, report.CommitmentsDeduped)
	assert.Empty(t, commitments.created)
}

func TestProcess_BulkCreateFailureStillCompletes(t *testing.T) {
	csv := sampleHeader +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,100,GBP\n" +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Private Equity,200,GBP\n"

	commitments := &fakeCommitmentAPI{
		bulkFn: func(reqs []models.CreateCommitmentRequest) ([]models.Commitment, int, error) {
			return nil, 0, errors.New("service down")
		},
	}
	p := newTestProcessor(&fakeAssetClassAPI{}, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusCompleted, report.Status)
	assert.Equal(t, 0, report.CommitmentsCreated)
	assert.Equal(t, "0/2 (0.0%)", report.CommitmentSuccessRate)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "commitment bulk create failed")
}

func TestProcess_ServerSkippedRowsCountAsDeduped(t *testing.T) {
	csv := sampleHeader +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Infrastructure,100,GBP\n" +
		"Ioo Gryffindor fund,fund manager,Singapore,2000-07-06,Private Equity,200,GBP\n"

	// A stale local index misses a duplicate; the service skips it instead
	commitments := &fakeCommitmentAPI{
		bulkFn: func(reqs []models.CreateCommitmentRequest) ([]models.Commitment, int, error) {
			created := []models.Commitment{{
				InvestorID:   reqs[0].InvestorID,
				AssetClassID: reqs[0].AssetClassID,
				Amount:       reqs[0].Amount,
				Currency:     reqs[0].Currency,
			}}
			return created, 1, nil
		},
	}
	p := newTestProcessor(&fakeAssetClassAPI{}, &fakeInvestorAPI{}, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusCompleted, report.Status)
	assert.Equal(t, 1, report.CommitmentsCreated)
	assert.Equal(t, 1, report.CommitmentsDeduped)
	assert.Equal(t, "1/2 (50.0%)", report.CommitmentSuccessRate)
}

func TestProcess_UnresolvedInvestorRowSkipped(t *testing.T) {
	csv := sampleHeader +
		"Resolves fund,fund manager,UK,2001-01-01,Infrastructure,100,GBP\n" +
		"Orphan fund,fund manager,UK,2001-01-01,Infrastructure,200,GBP\n"

	investors := &fakeInvestorAPI{
		bulkFn: func(reqs []models.CreateInvestorRequest) ([]models.Investor, error) {
			var out []models.Investor
			for _, req := range reqs {
				if req.Name == "Orphan fund" {
					continue
				}
				out = append(out, models.Investor{ID: "inv-" + req.Name, Name: req.Name})
			}
			return out, nil
		},
		createFn: func(req models.CreateInvestorRequest) (*models.Investor, error) {
			return nil, errors.New("create rejected")
		},
	}
	commitments := &fakeCommitmentAPI{}
	p := newTestProcessor(&fakeAssetClassAPI{}, investors, commitments)

	report := p.Process(context.Background(), strings.NewReader(csv), "job-1")

	assert.Equal(t, models.IngestionStatusCompleted, report.Status)
	assert.Equal(t, 1, report.CommitmentsCreated)
	assert.Len(t, commitments.created, 1)
	assert.Contains(t, report.Errors, "unresolved investor: Orphan fund")
}
