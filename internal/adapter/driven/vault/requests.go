package vault

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// checkInBody is the optional body of PUT /Requests/{id}/CheckIn. An empty
// reason is sent as an empty object.
type checkInBody struct {
	Reason string `json:"Reason,omitempty"`
}

// CreateRequest places a checkout with POST /Requests.
func (c *Client) CreateRequest(ctx context.Context, sess *model.Session, req model.PasswordRequest) (*model.PasswordRequestResult, error) {
	const op = "create password request"

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodPost,
		path:          []string{"Requests"},
		body:          toPasswordRequestDTO(req),
		authorization: sess.Authorization(),
	})
	if err != nil {
		return nil, err
	}

	result, err := decodeRequestResult(body)
	if err != nil {
		return nil, parseError(op, body, err)
	}

	// A bare-id answer carries nothing but the id; fill in what was asked for.
	if result.SystemID == 0 {
		result.SystemID = req.SystemID
	}
	if result.AccountID == 0 {
		result.AccountID = req.AccountID
	}
	if result.DurationMinutes == 0 {
		result.DurationMinutes = req.DurationMinutes
	}
	if result.Reason == "" {
		result.Reason = req.Reason
	}
	return &result, nil
}

// ListActiveRequests fetches GET /Requests?accountId=&state=active.
func (c *Client) ListActiveRequests(ctx context.Context, sess *model.Session, accountID int64) ([]model.PasswordRequestResult, error) {
	const op = "list active requests"

	q := url.Values{}
	q.Set("accountId", strconv.FormatInt(accountID, 10))
	q.Set("state", "active")

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodGet,
		path:          []string{"Requests"},
		query:         q,
		authorization: sess.Authorization(),
	})
	if err != nil {
		return nil, err
	}

	dtos, err := decodeOneOrMany[requestResultDTO](body)
	if err != nil {
		return nil, parseError(op, body, err)
	}

	results := make([]model.PasswordRequestResult, 0, len(dtos))
	for _, d := range dtos {
		if d.RequestID == "" {
			continue
		}
		results = append(results, mapRequestResult(d))
	}
	return results, nil
}

// CheckIn releases a checkout with PUT /Requests/{id}/CheckIn.
func (c *Client) CheckIn(ctx context.Context, sess *model.Session, requestID, reason string) error {
	_, err := c.send(ctx, apiCall{
		op:            "check in password",
		method:        http.MethodPut,
		path:          []string{"Requests", requestID, "CheckIn"},
		body:          checkInBody{Reason: reason},
		authorization: sess.Authorization(),
	})
	return err
}

// FetchCredential fetches GET /Credentials/{requestId} and accepts either a
// structured document or a bare quoted string.
func (c *Client) FetchCredential(ctx context.Context, sess *model.Session, requestID string) (model.Sensitive, error) {
	const op = "fetch credential"

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodGet,
		path:          []string{"Credentials", requestID},
		authorization: sess.Authorization(),
	})
	if err != nil {
		return "", err
	}

	password, err := parseCredentialBody(body)
	if err != nil {
		return "", parseError(op, body, err)
	}
	return password, nil
}
