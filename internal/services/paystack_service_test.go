package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitetransport/booking-backend/internal/config"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newPaystack(secret, baseURL string) *PaystackService {
	return NewPaystackService(&config.PaystackConfig{
		SecretKey: secret,
		BaseURL:   baseURL,
	}, newTestLogger())
}

func TestVerify(t *testing.T) {
	t.Run("Successful Charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/verify/R1", r.URL.Path)
			assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":true,"message":"ok","data":{"status":"success","reference":"R1","amount":5000,"currency":"GHS"}}`))
		}))
		defer server.Close()

		svc := newPaystack("sk_test_abc", server.URL)

		data, err := svc.Verify("R1")
		require.NoError(t, err)
		assert.Equal(t, int64(5000), data.Amount)
		assert.Equal(t, "R1", data.Reference)
	})

	t.Run("Failed Charge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":true,"data":{"status":"failed","reference":"R2","amount":0}}`))
		}))
		defer server.Close()

		svc := newPaystack("sk_test_abc", server.URL)

		_, err := svc.Verify("R2")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPaymentVerificationFailed))
	})

	t.Run("Processor Error Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		svc := newPaystack("sk_test_abc", server.URL)

		_, err := svc.Verify("R3")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPaymentVerificationFailed))
	})

	t.Run("No Secret Configured", func(t *testing.T) {
		svc := newPaystack("", "http://unused")

		_, err := svc.Verify("R4")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPaymentVerificationFailed))
	})

	t.Run("Empty Reference", func(t *testing.T) {
		svc := newPaystack("sk_test_abc", "http://unused")

		_, err := svc.Verify("")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInputInvalid))
	})
}

func TestValidateSignature(t *testing.T) {
	secret := "sk_test_abc"
	svc := newPaystack(secret, "http://unused")

	body := []byte(`{"event":"charge.success","data":{"reference":"R1"}}`)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	t.Run("Valid Signature", func(t *testing.T) {
		assert.True(t, svc.ValidateSignature(body, valid))
	})

	t.Run("Tampered Body", func(t *testing.T) {
		assert.False(t, svc.ValidateSignature(append(body, 'x'), valid))
	})

	t.Run("Wrong Signature", func(t *testing.T) {
		assert.False(t, svc.ValidateSignature(body, "deadbeef"))
	})

	t.Run("Missing Signature", func(t *testing.T) {
		assert.False(t, svc.ValidateSignature(body, ""))
	})

	t.Run("No Secret Configured", func(t *testing.T) {
		unconfigured := newPaystack("", "http://unused")
		assert.False(t, unconfigured.ValidateSignature(body, valid))
	})
}
