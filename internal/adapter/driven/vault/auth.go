package vault

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// ProbeAPIKey validates a PS-Auth header with GET /Auth.
func (c *Client) ProbeAPIKey(ctx context.Context, authorization string) error {
	_, err := c.send(ctx, apiCall{
		op:            "probe api key",
		method:        http.MethodGet,
		path:          []string{"Auth"},
		authorization: authorization,
	})
	return err
}

// RequestClientToken exchanges client credentials for an access token.
// The credentials travel as form parameters, which is what the vault's
// token endpoint expects.
func (c *Client) RequestClientToken(ctx context.Context, clientID, clientSecret string) (*driven.TokenGrant, error) {
	const op = "request client token"

	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     c.endpoint("Auth", "Connect", "Token").String(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, &model.APIError{Op: op, StatusCode: re.Response.StatusCode, Err: statusError(re.Body)}
		}
		return nil, &model.APIError{Op: op, Err: err}
	}

	return &driven.TokenGrant{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// SignAppIn binds the bearer token to an application session. The vault
// answers with a session cookie that the jar replays on later calls.
func (c *Client) SignAppIn(ctx context.Context, sess *model.Session) error {
	_, err := c.send(ctx, apiCall{
		op:            "sign app in",
		method:        http.MethodPost,
		path:          []string{"Auth", "SignAppIn"},
		authorization: sess.Authorization(),
	})
	return err
}

// SignOut ends the server-side session.
func (c *Client) SignOut(ctx context.Context, sess *model.Session) error {
	_, err := c.send(ctx, apiCall{
		op:            "sign out",
		method:        http.MethodPost,
		path:          []string{"Auth", "SignOut"},
		authorization: sess.Authorization(),
	})
	return err
}
