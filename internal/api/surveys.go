package api

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strconv"

	"github.com/surveyops/surveyctl/internal/models"
)

// ListRecords fetches one page of survey records matching search. page is
// 1-based; search is sent verbatim, empty meaning "all records".
func (c *Client) ListRecords(ctx context.Context, page, limit int, search string) (models.ListResult, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("search", search)

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/admin/surveys", query, nil)
	if err != nil {
		return models.ListResult{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "list records"); err != nil {
		return models.ListResult{}, err
	}

	var lr models.ListResponse
	if err := decode(resp, "list records", &lr); err != nil {
		return models.ListResult{}, err
	}
	if !lr.Success {
		return models.ListResult{}, fmt.Errorf("list records failed: %s", orDefault(lr.Message, "backend reported failure"))
	}

	records := lr.Surveys
	if records == nil {
		records = []models.SurveyRecord{}
	}
	total := lr.Total
	if total < 0 {
		total = 0
	}
	return models.ListResult{Records: records, Total: total}, nil
}

// GetRecord fetches a single record by identity.
func (c *Client) GetRecord(ctx context.Context, id string) (models.SurveyRecord, error) {
	if id == "" {
		return models.SurveyRecord{}, fmt.Errorf("get record: %w", ErrNotFound)
	}

	resp, err := c.doRequest(ctx, nethttp.MethodGet, "/admin/surveys/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return models.SurveyRecord{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "get record"); err != nil {
		return models.SurveyRecord{}, err
	}

	var rr models.RecordResponse
	if err := decode(resp, "get record", &rr); err != nil {
		return models.SurveyRecord{}, err
	}
	if rr.Survey.ID == "" {
		return models.SurveyRecord{}, fmt.Errorf("get record %s: %w", id, ErrNotFound)
	}
	return rr.Survey, nil
}

// CreateRecord submits a survey entry. No session is required.
func (c *Client) CreateRecord(ctx context.Context, sub models.Submission) (string, error) {
	if missing := sub.MissingFields(); len(missing) > 0 {
		return "", fmt.Errorf("submission is missing required fields: %v", missing)
	}

	resp, err := c.doRequest(ctx, nethttp.MethodPost, "/survey", nil, sub)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "submit survey"); err != nil {
		return "", err
	}

	var env models.Envelope
	if err := decode(resp, "submit survey", &env); err != nil {
		// Some deployments answer 201 with no body.
		if errors.Is(err, errEmptyBody) {
			return "", nil
		}
		return "", err
	}
	if !env.Success {
		return "", fmt.Errorf("submit survey failed: %s", orDefault(env.Message, "backend reported failure"))
	}
	return env.Message, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
