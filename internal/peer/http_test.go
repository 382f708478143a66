package peer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "wfap/pkg/domain-errors"
)

func TestHTTPConnectionSend(t *testing.T) {
	secret := []byte("test-peer-secret")

	t.Run("posts body with bearer token", func(t *testing.T) {
		var gotBody string
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			gotBody = string(raw)
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"status":"OFFER_EXTENDED"}`))
		}))
		defer srv.Close()

		conn := NewHTTPConnection("BANK-A", srv.URL, "CONSUMER-1", secret)
		resp, err := conn.Send(context.Background(), []byte(`{"intent_id":"i1"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"OFFER_EXTENDED"}`, string(resp))
		assert.Equal(t, `{"intent_id":"i1"}`, gotBody)

		require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
		token, err := jwt.Parse(strings.TrimPrefix(gotAuth, "Bearer "), func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("BANK-A"), jwt.WithIssuer("CONSUMER-1"))
		require.NoError(t, err)
		assert.True(t, token.Valid)
	})

	t.Run("non-200 reply is a communication error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		conn := NewHTTPConnection("BANK-A", srv.URL, "CONSUMER-1", secret)
		_, err := conn.Send(context.Background(), []byte(`{}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCommunication))
	})

	t.Run("context deadline surfaces as communication error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		defer srv.Close()

		conn := NewHTTPConnection("BANK-SLOW", srv.URL, "CONSUMER-1", secret)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := conn.Send(ctx, []byte(`{}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCommunication))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
