package ingest

import (
	"context"
	"io"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/jafarkuku/preqin-task/pkg/metrics"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// Processor orchestrates an ingestion run: parse the upload, resolve asset
// classes and investors, then bulk create the deduplicated commitments.
type Processor struct {
	parser      *Parser
	resolver    *Resolver
	commitments CommitmentAPI
	logger      ectologger.Logger
}

// NewProcessor creates a new ingestion processor
func NewProcessor(parser *Parser, resolver *Resolver, commitments CommitmentAPI, logger ectologger.Logger) *Processor {
	return &Processor{
		parser:      parser,
		resolver:    resolver,
		commitments: commitments,
		logger:      logger,
	}
}

// Process runs a full ingestion. The run fails outright only when the upload
// has no valid rows or when an entity kind referenced by the upload resolves
// to nothing; otherwise partial failures are reported and the run completes.
func (p *Processor) Process(ctx context.Context, upload io.Reader, jobID string) *models.IngestionReport {
	ctx, span := tracing.StartSpan(ctx, "ingest.Processor.Process")
	defer span.End()

	startedAt := time.Now().UTC()
	report := &models.IngestionReport{
		JobID:     jobID,
		StartedAt: startedAt,
	}
	defer func() {
		report.CompletedAt = time.Now().UTC()
		metrics.IngestionRunsTotal.WithLabelValues(report.Status).Inc()
		metrics.IngestionRunDuration.Observe(report.CompletedAt.Sub(startedAt).Seconds())
	}()

	log := p.logger.WithContext(ctx).WithField("job_id", jobID)

	parsed, err := p.parser.Parse(ctx, upload)
	if err != nil {
		log.WithError(err).Error("failed to parse upload")
		return p.fail(report, "failed to parse upload: "+err.Error())
	}

	report.TotalRows = parsed.TotalRows
	report.ValidRows = len(parsed.Rows)
	report.SkippedRows = parsed.SkippedRows

	if len(parsed.Rows) == 0 {
		log.Warn("upload contains no valid rows")
		return p.fail(report, "upload contains no valid rows")
	}

	assetClasses := p.resolver.ResolveAssetClasses(ctx, parsed.AssetClassNames)
	report.Errors = append(report.Errors, assetClasses.Errors...)
	report.AssetClassesCreated = assetClasses.Created
	report.AssetClassSuccessRate = models.SuccessRate(assetClasses.Created, assetClasses.Attempted)
	if assetClasses.Resolved() == 0 {
		log.Error("no asset classes resolved")
		return p.fail(report, "no asset classes could be resolved")
	}

	investors := p.resolver.ResolveInvestors(ctx, parsed.Investors)
	report.Errors = append(report.Errors, investors.Errors...)
	report.InvestorsCreated = investors.Created
	report.InvestorSuccessRate = models.SuccessRate(investors.Created, investors.Attempted)
	if investors.Resolved() == 0 {
		log.Error("no investors resolved")
		return p.fail(report, "no investors could be resolved")
	}

	index := BuildDedupIndex(ctx, p.commitments, p.logger)

	var batch []models.CreateCommitmentRequest
	for _, row := range parsed.Rows {
		investorID, ok := investors.IDsByName[row.InvestorName]
		if !ok {
			report.Errors = append(report.Errors, "unresolved investor: "+row.InvestorName)
			continue
		}
		assetClassID, ok := assetClasses.IDsByName[row.AssetClassName]
		if !ok {
			report.Errors = append(report.Errors, "unresolved asset class: "+row.AssetClassName)
			continue
		}

		if index.Seen(investorID, assetClassID, row.Amount, row.Currency) {
			report.CommitmentsDeduped++
			continue
		}

		index.Add(investorID, assetClassID, row.Amount, row.Currency)
		batch = append(batch, models.CreateCommitmentRequest{
			InvestorID:   investorID,
			AssetClassID: assetClassID,
			Amount:       row.Amount,
			Currency:     row.Currency,
		})
	}

	// One bulk call for the filtered batch. The service skips anything the
	// index missed, so the returned rows are the created count.
	if len(batch) > 0 {
		created, skipped, err := p.commitments.BulkCreate(ctx, batch)
		if err != nil {
			log.WithError(err).Warn("failed to bulk create commitments")
			report.Errors = append(report.Errors, "commitment bulk create failed: "+err.Error())
		}
		report.CommitmentsCreated = len(created)
		report.CommitmentsDeduped += skipped
	}

	report.CommitmentSuccessRate = models.SuccessRate(report.CommitmentsCreated, len(batch))
	report.Status = models.IngestionStatusCompleted

	log.WithFields(map[string]any{
		"valid_rows":          report.ValidRows,
		"commitments_created": report.CommitmentsCreated,
		"commitments_deduped": report.CommitmentsDeduped,
	}).Info("ingestion run completed")

	return report
}

func (p *Processor) fail(report *models.IngestionReport, reason string) *models.IngestionReport {
	report.Status = models.IngestionStatusFailed
	report.Errors = append(report.Errors, reason)
	return report
}
