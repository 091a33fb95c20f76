package vault

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// ListManagedSystems fetches GET /ManagedSystems, or GET /ManagedSystems/{id}
// when systemID is non-zero. Both shapes come back as a slice.
func (c *Client) ListManagedSystems(ctx context.Context, sess *model.Session, systemID int64) ([]model.ManagedSystem, error) {
	const op = "list managed systems"

	path := []string{"ManagedSystems"}
	if systemID != 0 {
		path = append(path, strconv.FormatInt(systemID, 10))
	}

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodGet,
		path:          path,
		authorization: sess.Authorization(),
		cached:        true,
	})
	if err != nil {
		return nil, err
	}

	dtos, err := decodeOneOrMany[managedSystemDTO](body)
	if err != nil {
		return nil, parseError(op, body, err)
	}

	systems := make([]model.ManagedSystem, 0, len(dtos))
	for _, d := range dtos {
		systems = append(systems, mapManagedSystem(d))
	}
	return systems, nil
}

// ListManagedAccounts fetches GET /ManagedAccounts with the query built
// from q. Domain-linked queries pass domain\account in one parameter.
func (c *Client) ListManagedAccounts(ctx context.Context, sess *model.Session, q driven.AccountQuery) ([]model.ManagedAccount, error) {
	const op = "list managed accounts"

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodGet,
		path:          []string{"ManagedAccounts"},
		query:         accountQueryValues(q),
		authorization: sess.Authorization(),
		cached:        true,
	})
	if err != nil {
		return nil, err
	}

	return decodeAccounts(op, body)
}

// GetManagedAccount fetches GET /ManagedAccounts/{id}. Some vault versions
// answer with a one-element collection; the first element is used and an
// empty collection is reported as not found.
func (c *Client) GetManagedAccount(ctx context.Context, sess *model.Session, accountID int64) (*model.ManagedAccount, error) {
	const op = "get managed account"

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodGet,
		path:          []string{"ManagedAccounts", strconv.FormatInt(accountID, 10)},
		authorization: sess.Authorization(),
		cached:        true,
	})
	if err != nil {
		return nil, err
	}

	accounts, err := decodeAccounts(op, body)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, &model.APIError{Op: op, StatusCode: http.StatusNotFound, Err: errors.New("managed account not found")}
	}
	return &accounts[0], nil
}

func decodeAccounts(op string, body []byte) ([]model.ManagedAccount, error) {
	dtos, err := decodeOneOrMany[managedAccountDTO](body)
	if err != nil {
		return nil, parseError(op, body, err)
	}

	accounts := make([]model.ManagedAccount, 0, len(dtos))
	for _, d := range dtos {
		accounts = append(accounts, mapManagedAccount(d))
	}
	return accounts, nil
}

func accountQueryValues(q driven.AccountQuery) url.Values {
	v := url.Values{}
	if q.DomainLinked {
		v.Set("accountname", q.DomainName+`\`+q.AccountName)
		v.Set("type", "domainlinked")
		return v
	}
	if q.SystemID != 0 {
		v.Set("systemId", strconv.FormatInt(q.SystemID, 10))
	}
	if q.SystemName != "" {
		v.Set("systemName", q.SystemName)
	}
	if q.AccountName != "" {
		v.Set("accountName", q.AccountName)
	}
	return v
}
