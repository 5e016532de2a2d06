package clients

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/jafarkuku/preqin-task/pkg/httpclient"
	"github.com/jafarkuku/preqin-task/pkg/models"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

// AssetClassClient talks to the asset class service
type AssetClassClient struct {
	http    *httpclient.Client
	baseURL string
	logger  ectologger.Logger
}

// NewAssetClassClient creates a new asset class client
func NewAssetClassClient(http *httpclient.Client, baseURL string, logger ectologger.Logger) *AssetClassClient {
	return &AssetClassClient{
		http:    http,
		baseURL: baseURL,
		logger:  logger,
	}
}

// ListAll walks the paginated listing until has_next is false. On error it
// returns the pages fetched so far together with the error so callers can
// resolve against a partial snapshot.
func (c *AssetClassClient) ListAll(ctx context.Context) ([]models.AssetClass, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassClient.ListAll")
	defer span.End()

	var items []models.AssetClass
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/api/v1/asset-classes?page=%d&page_size=%d", c.baseURL, page, listPageSize)
		resp, err := c.http.Get(ctx, url, nil)
		if err != nil {
			return items, err
		}
		if !resp.IsSuccess() {
			return items, fmt.Errorf("asset class listing returned status %d", resp.StatusCode)
		}

		var body models.AssetClassListResponse
		if err := resp.DecodeJSON(&body); err != nil {
			return items, err
		}

		items = append(items, body.Items...)
		if !body.HasNext {
			return items, nil
		}
	}
}

// BulkCreate creates asset classes in bulk. The response items are positional
// with the request and may be shorter on partial success.
func (c *AssetClassClient) BulkCreate(ctx context.Context, reqs []models.CreateAssetClassRequest) ([]models.AssetClass, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassClient.BulkCreate")
	defer span.End()

	url := c.baseURL + "/api/v1/asset-classes/bulk"
	resp, err := c.http.PostJSON(ctx, url, models.BulkCreateAssetClassesRequest{Items: reqs}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("asset class bulk create returned status %d", resp.StatusCode)
	}

	var body models.BulkCreateAssetClassesResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, err
	}

	return body.Items, nil
}

// Create creates a single asset class
func (c *AssetClassClient) Create(ctx context.Context, req models.CreateAssetClassRequest) (*models.AssetClass, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetClassClient.Create")
	defer span.End()

	url := c.baseURL + "/api/v1/asset-classes"
	resp, err := c.http.PostJSON(ctx, url, req, nil)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("asset class create returned status %d", resp.StatusCode)
	}

	var ac models.AssetClass
	if err := decodeCreated(resp.Body, &ac); err != nil {
		return nil, err
	}

	return &ac, nil
}
