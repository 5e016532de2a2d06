package clients

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/jafarkuku/preqin-task/pkg/httpclient"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// InvestorClient talks to the investor service
type InvestorClient struct {
	http    *httpclient.Client
	baseURL string
	logger  ectologger.Logger
}

// NewInvestorClient creates a new investor client
func NewInvestorClient(http *httpclient.Client, baseURL string, logger ectologger.Logger) *InvestorClient {
	return &InvestorClient{
		http:    http,
		baseURL: baseURL,
		logger:  logger,
	}
}

// ListAll walks the paginated listing until has_next is false. On error it
// returns the pages fetched so far together with the error so callers can
// resolve against a partial snapshot.
func (c *InvestorClient) ListAll(ctx context.Context) ([]models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorClient.ListAll")
	defer span.End()

	var items []models.Investor
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/api/v1/investors?page=%d&page_size=%d", c.baseURL, page, listPageSize)
		resp, err := c.http.Get(ctx, url, nil)
		if err != nil {
			return items, err
		}
		if !resp.IsSuccess() {
			return items, fmt.Errorf("investor listing returned status %d", resp.StatusCode)
		}

		var body models.InvestorListResponse
		if err := resp.DecodeJSON(&body); err != nil {
			return items, err
		}

		items = append(items, body.Items...)
		if !body.HasNext {
			return items, nil
		}
	}
}

// BulkCreate creates investors in bulk. The response items are positional with
// the request and may be shorter on partial success.
func (c *InvestorClient) BulkCreate(ctx context.Context, reqs []models.CreateInvestorRequest) ([]models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorClient.BulkCreate")
	defer span.End()

	url := c.baseURL + "/api/v1/investors/bulk"
	resp, err := c.http.PostJSON(ctx, url, models.BulkCreateInvestorsRequest{Items: reqs}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("investor bulk create returned status %d", resp.StatusCode)
	}

	var body models.BulkCreateInvestorsResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, err
	}

	return body.Items, nil
}

// Create creates a single investor
func (c *InvestorClient) Create(ctx context.Context, req models.CreateInvestorRequest) (*models.Investor, error) {
	ctx, span := tracing.StartSpan(ctx, "InvestorClient.Create")
	defer span.End()

	url := c.baseURL + "/api/v1/investors"
	resp, err := c.http.PostJSON(ctx, url, req, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("investor create returned status %d", resp.StatusCode)
	}

	var inv models.Investor
	if err := decodeCreated(resp.Body, &inv); err != nil {
		return nil, err
	}

	return &inv, nil
}
