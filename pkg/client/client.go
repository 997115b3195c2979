// Package client posts validated drafts to the prediction endpoint.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/goliatone/go-lesionform/pkg/model"
)

const defaultUserAgent = "lesionform/1"

// Client submits drafts as multipart requests. It performs no validation,
// caching, deduplication, or retries: one Submit call issues one request.
type Client struct {
	endpoint  string
	rest      *resty.Client
	userAgent string
}

// New constructs a client for the given prediction endpoint URL.
func New(endpoint string, options ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}

	c := &Client{
		endpoint:  endpoint,
		userAgent: defaultUserAgent,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.rest == nil {
		c.rest = resty.New()
	}
	return c, nil
}

// Endpoint reports the configured prediction URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type errorBody struct {
	Error string `json:"error"`
}

// Submit serializes the draft and returns the decoded prediction. The draft is
// expected to have passed model.Validate already.
func (c *Client) Submit(ctx context.Context, draft model.Draft) (model.PredictionResult, error) {
	if draft.Image == nil {
		return model.PredictionResult{}, &TransportError{Err: errors.New("draft has no image")}
	}

	image, err := draft.Image.Open()
	if err != nil {
		return model.PredictionResult{}, &TransportError{Err: fmt.Errorf("open image: %w", err)}
	}
	defer image.Close()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("User-Agent", c.userAgent).
		SetHeader("Accept", "application/json").
		SetFormData(map[string]string{
			string(model.FieldSex):          draft.Sex,
			string(model.FieldDxType):       draft.DxType,
			string(model.FieldLocalization): draft.Localization,
			string(model.FieldAge):          draft.Age,
		}).
		SetFileReader(string(model.FieldImage), draft.Image.Name, image).
		Post(c.endpoint)
	if err != nil {
		return model.PredictionResult{}, &TransportError{Err: err}
	}

	if !resp.IsSuccess() {
		terr := &TransportError{StatusCode: resp.StatusCode()}
		var body errorBody
		if jsonErr := json.Unmarshal(resp.Body(), &body); jsonErr == nil {
			terr.Message = body.Error
		}
		return model.PredictionResult{}, terr
	}

	var result model.PredictionResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return model.PredictionResult{}, &TransportError{
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return result, nil
}
