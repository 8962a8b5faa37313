package shelter

import (
	"context"
	"errors"

	credentialstore "github.com/dalemusser/stratashelter/internal/app/store/credentials"
	"github.com/dalemusser/stratashelter/internal/app/system/digest"
	"go.uber.org/zap"
)

// Messages returned in Outcome.Message.
const (
	MsgCredentialsRequired = "Username and password required"
	MsgRegistered          = "User registered successfully"
	MsgUsernameTaken       = "Username already exists"
	MsgRegistrationFailed  = "Registration failed: "
	MsgPasswordTooLong     = "Password is too long"
	MsgLoginSuccessful     = "Login successful"
	MsgInvalidCredentials  = "Invalid username or password"
)

// Outcome is the result of an identity operation: a success flag and a
// message suitable for showing to the user.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func failure(msg string) Outcome { return Outcome{OK: false, Message: msg} }

// Register stores username with the digest of password. Expected failures
// (missing input, taken username, other insert failures) come back as a failed
// Outcome with a nil error.
func (c *Client) Register(ctx context.Context, username, password string) (Outcome, error) {
	if username == "" || password == "" {
		return failure(MsgCredentialsRequired), nil
	}

	hashed, err := c.hasher.Hash(password)
	if errors.Is(err, digest.ErrPasswordTooLong) {
		return failure(MsgPasswordTooLong), nil
	}
	if err != nil {
		return failure(MsgRegistrationFailed + err.Error()), nil
	}

	if _, err := c.creds.Insert(ctx, username, hashed); err != nil {
		if errors.Is(err, credentialstore.ErrDuplicateUsername) {
			return failure(MsgUsernameTaken), nil
		}
		c.logger.Warn("registration insert failed",
			zap.String("username", username),
			zap.Error(err))
		return failure(MsgRegistrationFailed + err.Error()), nil
	}

	c.logger.Info("user registered", zap.String("username", username))
	return Outcome{OK: true, Message: MsgRegistered}, nil
}

// Authenticate checks username and password against the identity store. The
// failure message is the same whether the username is unknown or the password
// is wrong. Only unexpected store faults return an error.
func (c *Client) Authenticate(ctx context.Context, username, password string) (Outcome, error) {
	if username == "" || password == "" {
		return failure(MsgCredentialsRequired), nil
	}

	ok, err := c.verify(ctx, username, password)
	if err != nil {
		return Outcome{}, &StoreError{Op: "authenticate", Err: err}
	}
	if !ok {
		return failure(MsgInvalidCredentials), nil
	}
	return Outcome{OK: true, Message: MsgLoginSuccessful}, nil
}

func (c *Client) verify(ctx context.Context, username, password string) (bool, error) {
	if c.hasher.Deterministic() {
		hashed, err := c.hasher.Hash(password)
		if err != nil {
			return false, err
		}
		_, err = c.creds.FindByUsernameAndDigest(ctx, username, hashed)
		if errors.Is(err, credentialstore.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}

	cred, err := c.creds.FindByUsername(ctx, username)
	if errors.Is(err, credentialstore.ErrNotFound) {
		// pay the same compare cost as a known user
		c.hasher.Matches(password, c.dummyDigest)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.hasher.Matches(password, cred.Password), nil
}
