package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// Sports — GET /sports.
func (c *Client) Sports(ctx context.Context) ([]domain.Sport, error) {
	req, err := jsonRequest(http.MethodGet, "/sports", nil)
	if err != nil {
		return nil, err
	}
	var out envelope[[]domain.Sport]
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Courts — GET /courts[?sport_id=N].
func (c *Client) Courts(ctx context.Context, sportID int64) ([]domain.Court, error) {
	req, err := jsonRequest(http.MethodGet, "/courts", nil)
	if err != nil {
		return nil, err
	}
	if sportID > 0 {
		req.query = map[string]string{"sport_id": strconv.FormatInt(sportID, 10)}
	}
	var out envelope[[]domain.Court]
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Holidays — GET /admin/holidays.
func (c *Client) Holidays(ctx context.Context) ([]domain.Holiday, error) {
	req, err := jsonRequest(http.MethodGet, "/admin/holidays", nil)
	if err != nil {
		return nil, err
	}
	var out envelope[[]domain.Holiday]
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
