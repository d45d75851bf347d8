package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/cm360"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// googleStub serves userinfo at /userinfo and CM360 profiles at /userprofiles.
func googleStub(t *testing.T, userinfo, profiles http.HandlerFunc) (*Validator, *httptest.Server) {
	t.Helper()
	if profiles == nil {
		profiles = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/userinfo", userinfo)
	mux.HandleFunc("/userprofiles", profiles)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := cm360.NewClient(server.URL, server.Client(), nil, nil)
	return NewValidator(server.URL+"/userinfo", time.Second, server.Client(), client, nil), server
}

func okUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_, _ = io.WriteString(w, `{"name":"Ops","email":"ops@example.com","picture":"https://x/p.png"}`)
}

func TestValidate_Success(t *testing.T) {
	v, _ := googleStub(t, okUserInfo, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{"profileId":"1","accountId":"10"},{"profileId":"2","accountId":"20"}]}`)
	})

	id, err := v.Validate(context.Background(), "Bearer tok", "")
	require.NoError(t, err)
	assert.Equal(t, "Ops", id.Name)
	assert.Equal(t, "1", id.ProfileID)
	assert.Len(t, id.Profiles, 2)

	id, err = v.Validate(context.Background(), "tok", "2")
	require.NoError(t, err)
	assert.Equal(t, "20", id.AccountID)
}

func TestValidate_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		userinfo http.HandlerFunc
		profiles http.HandlerFunc
		want     error
	}{
		{
			name:     "identity rejects",
			userinfo: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			want:     ErrTokenRejected,
		},
		{
			name:     "no profile",
			userinfo: okUserInfo,
			profiles: func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, `{"items":[]}`) },
			want:     ErrNoProfile,
		},
		{
			name:     "api not enabled",
			userinfo: okUserInfo,
			profiles: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API has not been used","errors":[{"reason":"accessNotConfigured"}]}}`)
			},
			want: ErrAPIForbidden,
		},
		{
			name:     "expired",
			userinfo: okUserInfo,
			profiles: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
			},
			want: ErrTokenExpired,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			profiles := c.profiles
			if profiles == nil {
				profiles = func(w http.ResponseWriter, r *http.Request) { t.Error("profiles must not be queried") }
			}
			v, _ := googleStub(t, c.userinfo, profiles)
			_, err := v.Validate(context.Background(), "tok", "")
			assert.True(t, errors.Is(err, c.want), "got %v", err)
			assert.NotEqual(t, Message(err), Message(errors.New("other")))
		})
	}
}

func TestValidate_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	v, _ := googleStub(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)
	v.timeout = 50 * time.Millisecond

	_, err := v.Validate(context.Background(), "tok", "")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timeout", Reason(err))
}

func TestValidate_EmptyToken(t *testing.T) {
	v := NewValidator("http://unused", 0, nil, nil, nil)
	_, err := v.Validate(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrTokenRejected)
}

func TestMessagesAreDistinct(t *testing.T) {
	seen := map[string]error{}
	for _, err := range []error{ErrTokenRejected, ErrNoProfile, ErrAPIForbidden, ErrTokenExpired, ErrTimeout} {
		msg := Message(err)
		_, dup := seen[msg]
		assert.False(t, dup, "duplicate message for %v", err)
		seen[msg] = err
	}
}
