// Package whatsapp implements the outbound WhatsApp Cloud API adapter.
package whatsapp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"crm_server/core/port/out"
	"crm_server/pkg/apperr"
	"crm_server/pkg/httputil"
	"crm_server/pkg/logger"
)

// =============================================================================
// WhatsApp Cloud API Adapter
// =============================================================================

const defaultGraphBaseURL = "https://graph.facebook.com"

// Config holds the Cloud API credentials and addressing.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string // e.g. v21.0
	BaseURL       string // override for tests
}

// Adapter implements out.MessageSender against the WhatsApp Cloud API. API
// calls are wrapped in a circuit breaker so a degraded Graph API does not
// stall the worker pool.
type Adapter struct {
	cfg    Config
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger
}

// NewAdapter creates a new WhatsApp Cloud API adapter.
func NewAdapter(cfg Config, log *logger.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v21.0"
	}
	if log == nil {
		log = logger.Default()
	}

	cbSettings := gobreaker.Settings{
		Name:        "whatsapp-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &Adapter{
		cfg:    cfg,
		client: httputil.WhatsAppClient(),
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    log,
	}
}

// =============================================================================
// Request / Response Shapes
// =============================================================================

type textPayload struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textContent `json:"text"`
}

type textContent struct {
	Body string `json:"body"`
}

type readPayload struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// =============================================================================
// Operations
// =============================================================================

// SendText sends a plain text message and returns the provider message id.
func (a *Adapter) SendText(ctx context.Context, to, body string) (string, error) {
	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textContent{Body: body},
	}

	var resp sendResponse
	if err := a.post(ctx, "messages", payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", apperr.ExternalError("whatsapp", fmt.Errorf("send response carried no message id"))
	}

	a.log.WithField("to", to).Debug("whatsapp message sent")
	return resp.Messages[0].ID, nil
}

// MarkAsRead marks an inbound message as read.
func (a *Adapter) MarkAsRead(ctx context.Context, messageID string) error {
	payload := readPayload{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	}
	return a.post(ctx, "messages", payload, nil)
}

// =============================================================================
// Transport
// =============================================================================

func (a *Adapter) post(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.InternalWithError(err)
	}

	url := fmt.Sprintf("%s/%s/%s/%s", a.cfg.BaseURL, a.cfg.APIVersion, a.cfg.PhoneNumberID, path)

	cbErr := a.execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 400 {
			var errResp sendResponse
			if json.Unmarshal(data, &errResp) == nil && errResp.Error != nil {
				err = fmt.Errorf("whatsapp api error %d: %s", errResp.Error.Code, errResp.Error.Message)
			} else {
				err = fmt.Errorf("whatsapp api status %d", resp.StatusCode)
			}
			// Client errors must not trip the circuit breaker.
			if resp.StatusCode < 500 && resp.StatusCode != 429 {
				return &nonCircuitError{err: err}
			}
			return err
		}

		if dest != nil {
			if err := json.Unmarshal(data, dest); err != nil {
				return &nonCircuitError{err: err}
			}
		}
		return nil
	})

	if nce, ok := cbErr.(*nonCircuitError); ok {
		return apperr.ExternalError("whatsapp", nce.err)
	}
	if cbErr != nil {
		return apperr.ExternalError("whatsapp", cbErr)
	}
	return nil
}

// execute wraps an API call with circuit breaker protection.
func (a *Adapter) execute(fn func() error) error {
	result, err := a.cb.Execute(func() (interface{}, error) {
		if err := fn(); err != nil {
			if nce, ok := err.(*nonCircuitError); ok {
				// Counts as success for the breaker, surfaces as error.
				return nce, nil
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	if nce, ok := result.(*nonCircuitError); ok {
		return nce
	}
	return nil
}

// nonCircuitError wraps errors that should not trip the circuit breaker.
type nonCircuitError struct {
	err error
}

func (e *nonCircuitError) Error() string {
	return e.err.Error()
}

// CircuitState returns the current breaker state, useful for health checks.
func (a *Adapter) CircuitState() string {
	return a.cb.State().String()
}

// =============================================================================
// Interface Compliance
// =============================================================================

var _ out.MessageSender = (*Adapter)(nil)
