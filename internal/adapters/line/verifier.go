package line

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/ports"
)

var _ ports.TokenVerifier = (*Verifier)(nil)

// ErrChannelMismatch means the token was issued to a different channel.
var ErrChannelMismatch = errors.New("line: token issued for another channel")

// Verifier implements ports.TokenVerifier against the LINE Platform.
type Verifier struct {
	Client    *Client
	ChannelID string
	// Now is used to compute the token expiry. Defaults to time.Now.
	Now func() time.Time
}

// NewVerifier returns a Verifier bound to channelID.
func NewVerifier(client *Client, channelID string) (*Verifier, error) {
	if client == nil {
		return nil, errors.New("line: client is required")
	}
	if channelID == "" {
		return nil, errors.New("line: channel ID is required")
	}
	return &Verifier{Client: client, ChannelID: channelID, Now: time.Now}, nil
}

// Verify checks that accessToken is live and belongs to our channel, then loads its owner's profile.
func (v *Verifier) Verify(ctx context.Context, accessToken string) (domainauth.Identity, error) {
	if accessToken == "" {
		return domainauth.Identity{}, ErrInvalidToken
	}
	info, err := v.Client.VerifyToken(ctx, accessToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify token: %w", err)
	}
	if info.ClientID != v.ChannelID {
		return domainauth.Identity{}, ErrChannelMismatch
	}
	if info.ExpiresIn <= 0 {
		return domainauth.Identity{}, ErrInvalidToken
	}

	profile, err := v.Client.Profile(ctx, accessToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("load profile: %w", err)
	}
	if profile.UserID == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: profile without user id", ErrUpstream)
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	return domainauth.Identity{
		UserID:        profile.UserID,
		DisplayName:   profile.DisplayName,
		PictureURL:    profile.PictureURL,
		StatusMessage: profile.StatusMessage,
		ExpiresAt:     now().Add(time.Duration(info.ExpiresIn) * time.Second),
	}, nil
}
