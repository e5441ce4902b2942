package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"

	"github.com/vfa-khuongdv/lazy-prune/pkg/retention"
)

// Service handles service account authentication for Google APIs
type Service struct {
	config *jwt.Config

	mutex sync.Mutex
	token *oauth2.Token
}

// TokenInfo represents token information for display
type TokenInfo struct {
	ClientEmail string    `json:"client_email"`
	HasToken    bool      `json:"has_token"`
	Expiry      time.Time `json:"expiry,omitempty"`
	Valid       bool      `json:"valid"`
}

// NewService parses a service account key and creates a new auth service.
// Scopes default to full Drive access, which file deletion requires.
func NewService(credentialsJSON []byte, scopes ...string) (*Service, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("%w: service account credentials are required", retention.ErrConfiguration)
	}

	if !json.Valid(credentialsJSON) {
		return nil, fmt.Errorf("%w: service account credentials are not valid JSON", retention.ErrConfiguration)
	}

	if len(scopes) == 0 {
		scopes = []string{drive.DriveScope}
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse service account credentials: %w", retention.ErrConfiguration, err)
	}

	if config.Email == "" || len(config.PrivateKey) == 0 {
		return nil, fmt.Errorf("%w: service account credentials must include client_email and private_key", retention.ErrConfiguration)
	}

	return &Service{config: config}, nil
}

// ClientEmail returns the service account identity
func (s *Service) ClientEmail() string {
	return s.config.Email
}

// Scopes returns the OAuth2 scopes requested for the service account
func (s *Service) Scopes() []string {
	return s.config.Scopes
}

// Authenticate exchanges the service account key for an access token and
// returns a token source that refreshes it as needed.
func (s *Service) Authenticate(ctx context.Context) (oauth2.TokenSource, error) {
	source := s.config.TokenSource(ctx)

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange service account credentials for %s: %w",
			retention.ErrAuthentication, s.config.Email, err)
	}

	s.mutex.Lock()
	s.token = token
	s.mutex.Unlock()

	return oauth2.ReuseTokenSource(token, source), nil
}

// GetTokenInfo returns information about the last exchanged token
func (s *Service) GetTokenInfo() *TokenInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	info := &TokenInfo{ClientEmail: s.config.Email}
	if s.token == nil {
		return info
	}

	info.HasToken = true
	info.Expiry = s.token.Expiry
	info.Valid = s.token.Valid()
	return info
}
