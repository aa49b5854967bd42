package fineract

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/loanops_backend/utils"
)

const apiPathSuffix = "/fineract-provider/api/v1"

// APIBaseURL builds the versioned API base from the server URL an operator
// types into the login form.
func APIBaseURL(serverURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if strings.HasSuffix(trimmed, "/api/v1") {
		return trimmed
	}
	return trimmed + apiPathSuffix
}

// BasicAuthToken derives the Authorization header value attached to every
// gateway call after login.
func BasicAuthToken(username string, password string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + encoded
}

// Authenticate verifies the credentials against the ledger's authentication
// endpoint. Login is interactive, so this uses a short timeout and no retry.
func Authenticate(ctx context.Context, serverURL string, tenantId string, username string, password string) (*AuthResponse, error) {
	authURL := APIBaseURL(serverURL) + "/authentication"

	data, err := json.Marshal(authenticationRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Fineract-Platform-TenantId", tenantId)

	transport := http.DefaultTransport
	if strings.EqualFold(strings.TrimSpace(os.Getenv("FINERACT_INSECURE_TLS")), "true") {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	client := &http.Client{Timeout: 10 * time.Second, Transport: transport}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &utils.ConnectivityError{Op: "authenticate", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &utils.RemoteError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(body),
		}
	}

	var parsed AuthResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode authentication response: %w", err)
	}
	return &parsed, nil
}
