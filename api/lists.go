// ABOUTME: Investor list membership endpoints
// ABOUTME: CRUD over /api/investor_lists including bulk clear by list type
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/confideleapcrm/irdesk/models"
)

const listsPath = "/api/investor_lists"

// ListRows returns every row of one list.
func (c *Client) ListRows(ctx context.Context, listType models.ListType) ([]models.InvestorListRow, error) {
	q := url.Values{}
	q.Set("list", string(listType))
	rows, err := getList[models.InvestorListRow](ctx, c, listsPath, q, "lists", "investor_lists")
	if err != nil {
		return nil, err
	}
	// Some deployments omit list_type when filtering by it.
	for i := range rows {
		if rows[i].ListType == "" {
			rows[i].ListType = listType
		}
	}
	return rows, nil
}

// CreateRow adds an investor to a list.
func (c *Client) CreateRow(ctx context.Context, in models.RowInput) (*models.InvestorListRow, error) {
	if !in.ListType.Valid() {
		return nil, fmt.Errorf("invalid list type %q", in.ListType)
	}
	return sendItem[models.InvestorListRow](ctx, c, http.MethodPost, listsPath, in, "list", "row", "investor_list")
}

// UpdateRow rewrites a row in place, keeping its id.
func (c *Client) UpdateRow(ctx context.Context, id models.ID, in models.RowInput) (*models.InvestorListRow, error) {
	return sendItem[models.InvestorListRow](ctx, c, http.MethodPut, listsPath+"/"+url.PathEscape(id.String()), in, "list", "row", "investor_list")
}

// DeleteRow removes one row.
func (c *Client) DeleteRow(ctx context.Context, id models.ID) error {
	return c.do(ctx, http.MethodDelete, listsPath+"/"+url.PathEscape(id.String()), nil, nil, nil)
}

// ClearList removes every row of a list.
func (c *Client) ClearList(ctx context.Context, listType models.ListType) error {
	q := url.Values{}
	q.Set("list", string(listType))
	return c.do(ctx, http.MethodDelete, listsPath, q, nil, nil)
}
