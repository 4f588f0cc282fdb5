package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type codeRequest struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// Register claims code on the relay HTTP API at baseURL ("http://host:port").
func Register(ctx context.Context, httpClient *http.Client, baseURL, code string) (string, error) {
	return requestToken(ctx, httpClient, baseURL+"/api/v1/auth/register", code)
}

// Login returns a session token for an already registered code.
func Login(ctx context.Context, httpClient *http.Client, baseURL, code string) (string, error) {
	return requestToken(ctx, httpClient, baseURL+"/api/v1/auth/login", code)
}

func requestToken(ctx context.Context, httpClient *http.Client, endpoint, code string) (string, error) {
	body, err := json.Marshal(codeRequest{Code: code})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%s: %w", resp.Status, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%s: %s", resp.Status, token.Error)
	}
	return token.Token, nil
}
