package clients

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/jafarkuku/preqin-task/pkg/httpclient"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// CommitmentClient talks to the commitment service
type CommitmentClient struct {
	http    *httpclient.Client
	baseURL string
	logger  ectologger.Logger
}

// NewCommitmentClient creates a new commitment client
func NewCommitmentClient(http *httpclient.Client, baseURL string, logger ectologger.Logger) *CommitmentClient {
	return &CommitmentClient{
		http:    http,
		baseURL: baseURL,
		logger:  logger,
	}
}

// ListAll walks the paginated listing until has_next is false. On error it
// returns the pages fetched so far together with the error.
func (c *CommitmentClient) ListAll(ctx context.Context) ([]models.Commitment, error) {
	ctx, span := tracing.StartSpan(ctx, "CommitmentClient.ListAll")
	defer span.End()

	var items []models.Commitment
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/api/v1/commitments?page=%d&page_size=%d", c.baseURL, page, listPageSize)
		resp, err := c.http.Get(ctx, url, nil)
		if err != nil {
			return items, err
		}
		if !resp.IsSuccess() {
			return items, fmt.Errorf("commitment listing returned status %d", resp.StatusCode)
		}

		var body models.CommitmentListResponse
		if err := resp.DecodeJSON(&body); err != nil {
			return items, err
		}

		items = append(items, body.Items...)
		if !body.HasNext {
			return items, nil
		}
	}
}

// BulkCreate creates commitments in a single request. The response carries the
// newly created rows plus the count of duplicates the service skipped.
func (c *CommitmentClient) BulkCreate(ctx context.Context, reqs []models.CreateCommitmentRequest) ([]models.Commitment, int, error) {
	ctx, span := tracing.StartSpan(ctx, "CommitmentClient.BulkCreate")
	defer span.End()

	url := c.baseURL + "/api/v1/commitments/bulk"
	resp, err := c.http.PostJSON(ctx, url, models.BulkCreateCommitmentsRequest{Items: reqs}, nil)
	if err != nil {
		return nil, 0, err
	}
	if !resp.IsSuccess() {
		return nil, 0, fmt.Errorf("commitment bulk create returned status %d", resp.StatusCode)
	}

	var body models.BulkCreateCommitmentsResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, 0, err
	}

	return body.Items, body.Skipped, nil
}

// Create creates a single commitment
func (c *CommitmentClient) Create(ctx context.Context, req models.CreateCommitmentRequest) (*models.Commitment, error) {
	ctx, span := tracing.StartSpan(ctx, "CommitmentClient.Create")
	defer span.End()

	url := c.baseURL + "/api/v1/commitments"
	resp, err := c.http.PostJSON(ctx, url, req, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("commitment create returned status %d", resp.StatusCode)
	}

	var commitment models.Commitment
	if err := decodeCreated(resp.Body, &commitment); err != nil {
		return nil, err
	}

	return &commitment, nil
}
