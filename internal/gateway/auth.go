package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidWebhookToken = errors.New("invalid webhook token")

// WebhookClaims identify the agency behind an authenticated webhook delivery.
type WebhookClaims struct {
	AgencyID string
}

// SignWebhookToken issues an HS256 token an agency presents on webhook
// deliveries. Exposed for adapters that register webhooks programmatically
// and for tests.
func SignWebhookToken(creds *AgencyCredentials, ttl time.Duration) (string, error) {
	if creds.WebhookSecret == "" {
		return "", &ConfigurationError{AgencyID: creds.AgencyID, Reason: "webhook_secret is required"}
	}
	claims := jwt.MapClaims{
		"sub": creds.AgencyID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(creds.WebhookSecret))
}

// VerifyWebhookToken validates a delivery token against the agency's webhook
// secret and checks that the token was issued for that agency.
func VerifyWebhookToken(creds *AgencyCredentials, tokenString string) (*WebhookClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(creds.WebhookSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidWebhookToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidWebhookToken
	}

	agencyID, ok := claims["sub"].(string)
	if !ok || agencyID != creds.AgencyID {
		return nil, ErrInvalidWebhookToken
	}

	return &WebhookClaims{AgencyID: agencyID}, nil
}
