package vault

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// GetSecret fetches GET /Secrets-Safe/Secrets/{id}. A 404 is not an error.
func (c *Client) GetSecret(ctx context.Context, sess *model.Session, id uuid.UUID) (*model.Secret, error) {
	const op = "get secret"

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodGet,
		path:          []string{"Secrets-Safe", "Secrets", id.String()},
		authorization: sess.Authorization(),
	})
	if err != nil {
		if model.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	secrets, err := decodeSecrets(op, body)
	if err != nil {
		return nil, err
	}
	if len(secrets) == 0 {
		return nil, nil
	}
	return &secrets[0], nil
}

// FindSecretByTitle fetches GET /Secrets-Safe/Secrets?title= and returns the
// first secret whose title matches case-insensitively.
func (c *Client) FindSecretByTitle(ctx context.Context, sess *model.Session, title string) (*model.Secret, error) {
	const op = "find secret by title"

	q := url.Values{}
	q.Set("title", title)

	body, err := c.send(ctx, apiCall{
		op:            op,
		method:        http.MethodGet,
		path:          []string{"Secrets-Safe", "Secrets"},
		query:         q,
		authorization: sess.Authorization(),
	})
	if err != nil {
		if model.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	secrets, err := decodeSecrets(op, body)
	if err != nil {
		return nil, err
	}
	for i := range secrets {
		if strings.EqualFold(secrets[i].Title, title) {
			return &secrets[i], nil
		}
	}
	return nil, nil
}

func decodeSecrets(op string, body []byte) ([]model.Secret, error) {
	dtos, err := decodeOneOrMany[secretDTO](body)
	if err != nil {
		return nil, parseError(op, body, err)
	}

	secrets := make([]model.Secret, 0, len(dtos))
	for _, d := range dtos {
		s, err := mapSecret(d)
		if err != nil {
			return nil, parseError(op, body, err)
		}
		secrets = append(secrets, s)
	}
	return secrets, nil
}
