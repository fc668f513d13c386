package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

var ErrSessionLookupFailed = errors.New("failed to retrieve checkout session")

// PaymentStatusPaid is the gateway status a session must report before any
// credit is released.
const PaymentStatusPaid = "paid"

const requestTimeout = 15 * time.Second

// Session is the slice of a Checkout Session the verifier cares about.
// AmountTotal is in minor currency units.
type Session struct {
	ID            string
	PaymentStatus string
	CustomerEmail string
	AmountTotal   int64
	Currency      string
}

type Config struct {
	SecretKey string
}

type Client struct {
	api *client.API
}

func NewClient(config Config) *Client {
	if config.SecretKey == "" {
		logrus.Warn("Stripe secret key is empty, session lookups will fail")
	} else {
		logrus.Infof("Initializing Stripe client (key length: %d)", len(config.SecretKey))
	}

	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		HTTPClient: &http.Client{Timeout: requestTimeout},
	})

	api := &client.API{}
	api.Init(config.SecretKey, &stripeapi.Backends{API: backend})

	return &Client{
		api: api,
	}
}

func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to retrieve checkout session %s", sessionID)
		return nil, fmt.Errorf("%w: %v", ErrSessionLookupFailed, err)
	}

	email := ""
	if sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}

	return &Session{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		CustomerEmail: email,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
	}, nil
}
