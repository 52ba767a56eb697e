package store

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	searchopts "github.com/kart-io/ragquery/pkg/options/search"
	"github.com/kart-io/ragquery/pkg/utils/httpclient"
	"github.com/kart-io/ragquery/pkg/utils/json"
)

// AzureSearch 通过 Azure AI Search REST API 执行全文检索。
type AzureSearch struct {
	client   *httpclient.Client
	endpoint string
	index    string
	apiKey   string
	version  string
}

type azureSearchRequest struct {
	Search string `json:"search"`
	Top    int    `json:"top"`
}

type azureSearchResponse struct {
	Value []Hit `json:"value"`
}

// NewAzureSearch 创建 Azure AI Search 后端。
func NewAzureSearch(opts *searchopts.AzureOptions) *AzureSearch {
	return &AzureSearch{
		client:   httpclient.NewClient(opts.Timeout, opts.MaxRetries),
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		index:    opts.Index,
		apiKey:   opts.APIKey,
		version:  opts.APIVersion,
	}
}

// Name 返回后端名称。
func (s *AzureSearch) Name() string {
	return searchopts.BackendAzure
}

// Search 调用 docs/search 接口，命中中的 @search.* 元数据字段原样保留。
func (s *AzureSearch) Search(ctx context.Context, text string, topK int) ([]Hit, error) {
	body, err := json.Marshal(azureSearchRequest{Search: text, Top: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s",
		s.endpoint, url.PathEscape(s.index), url.QueryEscape(s.version))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.apiKey)

	var resp azureSearchResponse
	if err := s.client.DoJSON(req, &resp); err != nil {
		return nil, fmt.Errorf("azure search on index %s: %w", s.index, err)
	}
	if resp.Value == nil {
		return []Hit{}, nil
	}
	return resp.Value, nil
}
