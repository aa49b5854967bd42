package fineract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/loanops_backend/config"
	"bitbucket.org/mmdatafocus/loanops_backend/utils"
	"github.com/shopspring/decimal"
)

func testConfig(baseURL string) config.LedgerConfig {
	return config.LedgerConfig{
		BaseURL:    baseURL,
		AuthToken:  "Basic dXNlcjpwYXNz",
		TenantId:   "default",
		DateFormat: "dd MMMM yyyy",
		TimeFormat: "dd MMMM yyyy HH:mm:ss",
		Locale:     "en",
	}
}

func TestFetchLoanSendsHeadersAndDecodes(t *testing.T) {
	var gotAuth, gotTenant, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get("Fineract-Platform-TenantId")
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(`{"id": 5, "transactions": [{"id": 11, "type": {"code": "loanTransactionType.repayment", "value": "Repayment"}, "amount": 150.5, "date": [2025, 12, 1], "manuallyReversed": false}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	loan, err := client.FetchLoan(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Basic dXNlcjpwYXNz" || gotTenant != "default" {
		t.Errorf("headers = %q / %q", gotAuth, gotTenant)
	}
	if gotPath != "/loans/5?associations=all" {
		t.Errorf("path = %q", gotPath)
	}
	if len(loan.Transactions) != 1 || loan.Transactions[0].Id != 11 {
		t.Errorf("loan = %+v", loan)
	}
	if !loan.Transactions[0].Amount.Equal(decimal.NewFromFloat(150.5)) {
		t.Errorf("amount = %s", loan.Transactions[0].Amount)
	}
}

func TestReverseTransactionForcesZeroAmount(t *testing.T) {
	var payload map[string]interface{}
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"resourceId": 11}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	date := time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)
	if err := client.ReverseTransaction(context.Background(), 5, 11, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/loans/5/transactions/11?command=undo" {
		t.Errorf("path = %q", gotPath)
	}
	// A non-zero amount makes the ledger emit an offsetting entry.
	if amount, ok := payload["transactionAmount"].(float64); !ok || amount != 0 {
		t.Errorf("transactionAmount = %v, must be 0", payload["transactionAmount"])
	}
	if payload["transactionDate"] != "06 December 2025 00:00:00" {
		t.Errorf("transactionDate = %v", payload["transactionDate"])
	}
	if payload["dateFormat"] != "dd MMMM yyyy" || payload["locale"] != "en" {
		t.Errorf("format fields = %v / %v", payload["dateFormat"], payload["locale"])
	}
}

func TestCreateRepaymentDefaultsTypeIds(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"resourceId": 1042}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	newId, err := client.CreateRepayment(context.Background(), 5, decimal.NewFromInt(200), "01 December 2025 00:00:00", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newId != 1042 {
		t.Errorf("newId = %d, want 1042", newId)
	}
	if payload["paymentTypeId"].(float64) != 8 {
		t.Errorf("paymentTypeId = %v, want default 8", payload["paymentTypeId"])
	}
	if payload["channelTypeId"].(float64) != 1 {
		t.Errorf("channelTypeId = %v, want default 1", payload["channelTypeId"])
	}
	if payload["isUseHoldAmount"].(bool) != false {
		t.Errorf("isUseHoldAmount = %v", payload["isUseHoldAmount"])
	}
}

func TestCreateRepaymentKeepsExplicitTypeIds(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"resourceId": 1}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if _, err := client.CreateRepayment(context.Background(), 5, decimal.NewFromInt(200), "01 December 2025 00:00:00", 3, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["paymentTypeId"].(float64) != 3 || payload["channelTypeId"].(float64) != 2 {
		t.Errorf("type ids = %v / %v, want 3 / 2", payload["paymentTypeId"], payload["channelTypeId"])
	}
}

func TestNon2xxBecomesRemoteErrorWithoutRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"defaultUserMessage": "not allowed", "developerMessage": "command rejected"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	err := client.ReverseTransaction(context.Background(), 5, 11, time.Now())
	var remoteErr *utils.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if remoteErr.Status != 400 || remoteErr.Message != "not allowed" {
		t.Errorf("remote error = %+v", remoteErr)
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on rejection)", calls)
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := extractErrorMessage([]byte(`{"developerMessage": "dev detail"}`)); got != "dev detail" {
		t.Errorf("developer fallback = %q", got)
	}
	if got := extractErrorMessage([]byte("  plain text error\n")); got != "plain text error" {
		t.Errorf("raw fallback = %q", got)
	}
}

func TestAuthenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fineract-provider/api/v1/authentication" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Fineract-Platform-TenantId") != "default" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["username"] != "mifos" || req["password"] != "password" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"defaultUserMessage": "invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"username": "mifos", "userId": 1, "authenticated": true}`))
	}))
	defer server.Close()

	user, err := Authenticate(context.Background(), server.URL, "default", "mifos", "password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "mifos" || !user.Authenticated {
		t.Errorf("user = %+v", user)
	}

	_, err = Authenticate(context.Background(), server.URL, "default", "mifos", "wrong")
	var remoteErr *utils.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Message != "invalid credentials" {
		t.Errorf("err = %v, want RemoteError with server message", err)
	}
}

func TestAPIBaseURL(t *testing.T) {
	if got := APIBaseURL("https://ledger.example:8443"); got != "https://ledger.example:8443/fineract-provider/api/v1" {
		t.Errorf("APIBaseURL = %q", got)
	}
	already := "https://ledger.example:8443/fineract-provider/api/v1"
	if got := APIBaseURL(already + "/"); got != already {
		t.Errorf("APIBaseURL = %q, want unchanged", got)
	}
}

func TestBasicAuthToken(t *testing.T) {
	if got := BasicAuthToken("user", "pass"); got != "Basic dXNlcjpwYXNz" {
		t.Errorf("BasicAuthToken = %q", got)
	}
}
