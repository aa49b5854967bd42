package fineract

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/loanops_backend/config"
	"bitbucket.org/mmdatafocus/loanops_backend/models"
	"bitbucket.org/mmdatafocus/loanops_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Repayment defaults accepted by the ledger when the captured record carries
// no payment detail (matches what the ledger UI sends).
const (
	DefaultPaymentTypeId = 8
	DefaultChannelTypeId = 1
)

// Client is the gateway to the remote ledger. All three remote operations run
// through the same retry policy: connectivity failures are retried with
// backoff, rejected requests surface immediately as RemoteError.
type Client struct {
	cfg    config.LedgerConfig
	http   *http.Client
	logger *logrus.Logger
	retry  utils.RetryPolicy
}

func NewClient(cfg config.LedgerConfig) *Client {
	transport := http.DefaultTransport
	if strings.EqualFold(strings.TrimSpace(os.Getenv("FINERACT_INSECURE_TLS")), "true") {
		// Dev ledgers commonly run on self-signed certs.
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		logger: config.GetLogger(),
		retry:  utils.DefaultRetryPolicy(),
	}
}

// FetchLoan reads the loan with all its transactions.
func (c *Client) FetchLoan(ctx context.Context, loanId int) (*models.LoanDetails, error) {
	url := fmt.Sprintf("%s/loans/%d?associations=all", c.baseURL(), loanId)
	return utils.DoWithRetry(ctx, c.retry, c.logger, "fetchLoan", func() (*models.LoanDetails, error) {
		var loan models.LoanDetails
		if err := c.doJSON(ctx, http.MethodGet, url, nil, &loan); err != nil {
			return nil, err
		}
		return &loan, nil
	})
}

// ReverseTransaction marks one transaction as undone on the ledger.
// transactionAmount MUST be sent as 0: a non-zero amount makes the ledger
// generate an offsetting entry instead of a plain reversal.
func (c *Client) ReverseTransaction(ctx context.Context, loanId int, transactionId int, transactionDate time.Time) error {
	url := fmt.Sprintf("%s/loans/%d/transactions/%d?command=undo", c.baseURL(), loanId, transactionId)
	payload := reversalRequest{
		TransactionDate:   utils.FormatAPIDate(transactionDate),
		TransactionAmount: 0,
		DateFormat:        c.cfg.DateFormat,
		TimeFormat:        c.cfg.TimeFormat,
		Locale:            c.cfg.Locale,
	}
	_, err := utils.DoWithRetry(ctx, c.retry, c.logger, "reverseTransaction", func() (*CommandResponse, error) {
		var resp CommandResponse
		if err := c.doJSON(ctx, http.MethodPost, url, payload, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	return err
}

// CreateRepayment re-creates a repayment and returns the new transaction id.
// Zero payment/channel type ids fall back to the ledger's accepted defaults.
func (c *Client) CreateRepayment(ctx context.Context, loanId int, amount decimal.Decimal, transactionDate string, paymentTypeId int, channelTypeId int) (int, error) {
	if paymentTypeId == 0 {
		paymentTypeId = DefaultPaymentTypeId
	}
	if channelTypeId == 0 {
		channelTypeId = DefaultChannelTypeId
	}

	url := fmt.Sprintf("%s/loans/%d/transactions?command=repayment", c.baseURL(), loanId)
	payload := repaymentRequest{
		IsUseHoldAmount:   false,
		TransactionAmount: amount.InexactFloat64(),
		NpaAmount:         0,
		TransactionDate:   transactionDate,
		DateFormat:        c.cfg.DateFormat,
		TimeFormat:        c.cfg.TimeFormat,
		Locale:            c.cfg.Locale,
		PaymentTypeId:     paymentTypeId,
		ChannelTypeId:     channelTypeId,
	}

	resp, err := utils.DoWithRetry(ctx, c.retry, c.logger, "createRepayment", func() (*CommandResponse, error) {
		var resp CommandResponse
		if err := c.doJSON(ctx, http.MethodPost, url, payload, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return 0, err
	}
	return resp.ResourceId, nil
}

func (c *Client) baseURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/")
}

func (c *Client) doJSON(ctx context.Context, method string, url string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		// No response was received; transport-level failures are retryable.
		return &utils.ConnectivityError{Op: method + " " + url, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &utils.RemoteError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(respBody),
		}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode ledger response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Authorization", c.cfg.AuthToken)
	req.Header.Set("Fineract-Platform-TenantId", c.cfg.TenantId)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
}

// extractErrorMessage prefers the ledger's user-facing message, then the
// developer message, then the raw body.
func extractErrorMessage(body []byte) string {
	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.DefaultUserMessage != "" {
			return parsed.DefaultUserMessage
		}
		if parsed.DeveloperMessage != "" {
			return parsed.DeveloperMessage
		}
	}
	return strings.TrimSpace(string(body))
}
