package remote

import (
	"context"
	"net/http"

	"github.com/esteh-pos/stock-console/internal/apperr"

	"go.uber.org/zap"
)

// User is the account behind the current token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`

	// OutletID is zero for warehouse and admin accounts.
	OutletID int64 `json:"outlet_id"`
}

// Session is the outcome of a successful login.
type Session struct {
	Token string `json:"-"`
	User  User   `json:"user"`
}

func (u userDTO) toDomain() User {
	out := User{ID: u.ID, Username: u.Username, Role: u.Role}
	switch {
	case u.OutletID != nil:
		out.OutletID = *u.OutletID
	case u.Outlet != nil:
		out.OutletID = u.Outlet.ID
	}
	return out
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, apperr.Validationf("username and password are required")
	}

	body, err := c.sendJSON(ctx, "login", http.MethodPost, "/login", loginBody{Username: username, Password: password})
	if err != nil {
		return Session{}, err
	}
	dto, err := decodeItem[loginDTO]("login", body)
	if err != nil {
		return Session{}, err
	}

	token := dto.Token
	if token == "" {
		token = dto.AccessToken
	}
	if token == "" {
		return Session{}, &apperr.RemoteError{Op: "login", StatusCode: http.StatusOK, Message: "login response carried no token"}
	}
	c.SetToken(token)

	session := Session{Token: token, User: dto.User.toDomain()}
	c.logger.Info("🔑 logged in",
		zap.String("username", session.User.Username),
		zap.String("role", session.User.Role),
		zap.Int64("outlet_id", session.User.OutletID))
	return session, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (User, error) {
	body, err := c.get(ctx, "me", "/me")
	if err != nil {
		return User{}, err
	}
	dto, err := decodeItem[userDTO]("me", body)
	if err != nil {
		return User{}, err
	}
	return dto.toDomain(), nil
}
