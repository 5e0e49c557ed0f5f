// Package auth implements login against a VibeTunnel server: password
// or device-key challenge/response, plus local token persistence.
package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/vibetunnel/tui/internal/api"
)

// Result is a successful login outcome.
type Result struct {
	Token  string `json:"token"`
	UserID string `json:"userId,omitempty"`
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

// Config fetches the server's auth configuration.
func Config(ctx context.Context, client *api.Client) (api.AuthConfig, error) {
	var cfg api.AuthConfig
	if err := client.GetJSON(ctx, "/api/auth/config", &cfg); err != nil {
		return api.AuthConfig{}, err
	}
	return cfg, nil
}

// LoginPassword authenticates with a user password.
func LoginPassword(ctx context.Context, client *api.Client, password, deviceID string) (Result, error) {
	req := map[string]string{
		"password": password,
		"deviceId": deviceID,
	}
	var res Result
	if err := client.PostJSON(ctx, "/api/auth/password", req, &res); err != nil {
		return Result{}, err
	}
	if res.Token == "" {
		return Result{}, fmt.Errorf("login: server returned no token")
	}
	return res, nil
}

// LoginKey authenticates with the persisted device key: fetch a
// challenge, sign it, post the signature.
func LoginKey(ctx context.Context, client *api.Client, kp *KeyPair, deviceID string) (Result, error) {
	var ch challengeResponse
	req := map[string]string{"deviceId": deviceID}
	if err := client.PostJSON(ctx, "/api/auth/challenge", req, &ch); err != nil {
		return Result{}, fmt.Errorf("request challenge: %w", err)
	}
	if ch.Challenge == "" {
		return Result{}, fmt.Errorf("request challenge: empty challenge")
	}

	sig := ed25519.Sign(kp.Private, []byte(ch.Challenge))
	body := map[string]string{
		"publicKey": base64.StdEncoding.EncodeToString(kp.Private.Public().(ed25519.PublicKey)),
		"signature": base64.StdEncoding.EncodeToString(sig),
		"challenge": ch.Challenge,
		"deviceId":  deviceID,
	}
	var res Result
	if err := client.PostJSON(ctx, "/api/auth/ssh-key", body, &res); err != nil {
		return Result{}, err
	}
	if res.Token == "" {
		return Result{}, fmt.Errorf("login: server returned no token")
	}
	return res, nil
}
