package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/cm360"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultUserInfoURL is Google's OpenID userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// DefaultTimeout bounds one validation: identity plus profile discovery.
const DefaultTimeout = 10 * time.Second

// Identity is what a valid token tells us about the operator.
type Identity struct {
	Name      string
	Email     string
	Picture   string
	ProfileID string
	AccountID string
	Profiles  []cm360.UserProfile
}

// ProfileLister discovers CM360 profiles for a token.
type ProfileLister interface {
	ListUserProfiles(ctx context.Context, token string) ([]cm360.UserProfile, error)
}

// Validator checks a bearer token against the identity endpoint and CM360.
type Validator struct {
	userInfoURL string
	httpClient  *http.Client
	profiles    ProfileLister
	timeout     time.Duration
	logger      *zap.Logger
}

// NewValidator creates a validator. Zero values select the defaults.
func NewValidator(userInfoURL string, timeout time.Duration, httpClient *http.Client, profiles ProfileLister, logger *zap.Logger) *Validator {
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
		profiles:    profiles,
		timeout:     timeout,
		logger:      logger,
	}
}

type userInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// NormalizeToken strips surrounding whitespace and a pasted "Bearer " prefix.
func NormalizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
}

// Validate resolves token into an Identity. preferredProfile selects among
// several CM360 profiles; empty picks the first.
func (v *Validator) Validate(ctx context.Context, token, preferredProfile string) (Identity, error) {
	token = NormalizeToken(token)
	if token == "" {
		return Identity{}, fmt.Errorf("%w: empty token", ErrTokenRejected)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	info, err := v.fetchUserInfo(ctx, token)
	if err != nil {
		return Identity{}, timeoutOr(ctx, err)
	}

	profiles, err := v.profiles.ListUserProfiles(ctx, token)
	if err != nil {
		return Identity{}, timeoutOr(ctx, classifyProfileError(err))
	}
	if len(profiles) == 0 {
		return Identity{}, ErrNoProfile
	}

	chosen := profiles[0]
	for _, p := range profiles {
		if preferredProfile != "" && p.ProfileID == preferredProfile {
			chosen = p
			break
		}
	}

	name := info.Name
	if name == "" {
		name = chosen.UserName
	}
	return Identity{
		Name:      name,
		Email:     info.Email,
		Picture:   info.Picture,
		ProfileID: chosen.ProfileID,
		AccountID: chosen.AccountID,
		Profiles:  profiles,
	}, nil
}

func (v *Validator) fetchUserInfo(ctx context.Context, token string) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return userInfo{}, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return userInfo{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			v.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return userInfo{}, fmt.Errorf("%w: http %d: %s", ErrTokenRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return userInfo{}, fmt.Errorf("%w: decode userinfo: %v", ErrTokenRejected, err)
	}
	return info, nil
}

func classifyProfileError(err error) error {
	var apiErr *cm360.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrTokenExpired, apiErr.Message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAPIForbidden, apiErr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNoProfile, apiErr.Message)
	default:
		return err
	}
}

// timeoutOr maps a deadline hit on ctx to ErrTimeout.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
