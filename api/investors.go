// ABOUTME: Investor, company and user directory endpoints
// ABOUTME: Paginated targeting search, investor detail, company search and user management
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/confideleapcrm/irdesk/models"
)

// CompanyPageLimit is the page size used to load the whole company directory.
const CompanyPageLimit = 1000

// SearchInvestors runs the paginated, filterable investor search.
func (c *Client) SearchInvestors(ctx context.Context, q models.TargetingQuery) (*models.TargetingPage, error) {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	setCSV(v, "firm_types", q.Filters.FirmTypes)
	setCSV(v, "sectors", q.Filters.Sectors)
	setCSV(v, "aum", q.Filters.AUM)
	setCSV(v, "buy_sell", q.Filters.BuySell)
	setCSV(v, "customer_ids", q.Filters.CustomerIDs)

	var data []byte
	if err := c.do(ctx, http.MethodGet, "/api/investors/targeting/list", v, nil, &data); err != nil {
		return nil, err
	}
	return decodeTargetingPage(data, q)
}

func decodeTargetingPage(data []byte, q models.TargetingQuery) (*models.TargetingPage, error) {
	investors, err := decodeList[models.Investor](data, "investors")
	if err != nil {
		return nil, fmt.Errorf("failed to decode investor search: %w", err)
	}
	page := &models.TargetingPage{Investors: investors, Page: q.Page, Limit: q.Limit, Total: len(investors)}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return page, nil
	}
	var meta struct {
		Total      *int           `json:"total"`
		Page       *int           `json:"page"`
		Limit      *int           `json:"limit"`
		Metrics    map[string]any `json:"metrics"`
		Summary    map[string]any `json:"summary"`
		Pagination *struct {
			Total *int `json:"total"`
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode investor search metadata: %w", err)
	}
	if p := meta.Pagination; p != nil {
		meta.Total, meta.Page, meta.Limit = firstInt(meta.Total, p.Total), firstInt(meta.Page, p.Page), firstInt(meta.Limit, p.Limit)
	}
	if meta.Total != nil {
		page.Total = *meta.Total
	}
	if meta.Page != nil {
		page.Page = *meta.Page
	}
	if meta.Limit != nil {
		page.Limit = *meta.Limit
	}
	page.Metrics = meta.Metrics
	if page.Metrics == nil {
		page.Metrics = meta.Summary
	}
	return page, nil
}

func firstInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

func setCSV(v url.Values, key string, values []string) {
	if len(values) > 0 {
		v.Set(key, strings.Join(values, ","))
	}
}

func (c *Client) GetInvestor(ctx context.Context, id models.ID) (*models.Investor, error) {
	var data []byte
	if err := c.do(ctx, http.MethodGet, "/api/investors/"+url.PathEscape(id.String()), nil, nil, &data); err != nil {
		return nil, err
	}
	return decodeItem[models.Investor](data, "investor")
}

func (c *Client) CreateInvestor(ctx context.Context, in models.Investor) (*models.Investor, error) {
	if err := models.ValidateInvestor(in); err != nil {
		return nil, err
	}
	return sendItem[models.Investor](ctx, c, http.MethodPost, "/api/investors", in, "investor")
}

// SearchCompanies searches the company directory. An empty query with
// CompanyPageLimit loads the whole directory.
func (c *Client) SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error) {
	v := url.Values{}
	if query != "" {
		v.Set("search", query)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return getList[models.Company](ctx, c, "/api/companies", v, "companies")
}

func (c *Client) ListUsers(ctx context.Context, query string) ([]models.User, error) {
	v := url.Values{}
	if query != "" {
		v.Set("search", query)
	}
	return getList[models.User](ctx, c, "/api/users", v, "users")
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := models.ValidateUser(in, false); err != nil {
		return nil, err
	}
	return sendItem[models.User](ctx, c, http.MethodPost, "/api/users", in, "user")
}

func (c *Client) UpdateUser(ctx context.Context, id models.ID, in models.UserInput) (*models.User, error) {
	if err := models.ValidateUser(in, true); err != nil {
		return nil, err
	}
	return sendItem[models.User](ctx, c, http.MethodPut, "/api/users/"+url.PathEscape(id.String()), in, "user")
}
