package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/pkg/config"
)

// SecretManager reads provider credentials from a KV secret
type SecretManager struct {
	client *api.Client
	log    *zap.Logger
}

func NewSecretManager(address, token string, log *zap.Logger) (*SecretManager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(token)

	return &SecretManager{client: client, log: log}, nil
}

// ReadSecrets returns the string values stored at path. KV v2 responses
// nest the values under "data"; KV v1 responses are flat.
func (sm *SecretManager) ReadSecrets(ctx context.Context, path string) (map[string]string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault secret %s not found", path)
	}

	data := secret.Data
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	values := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			values[k] = s
		}
	}
	return values, nil
}

// Overlay replaces configured credentials with the non-empty values found
// in Vault and returns the names of the keys it applied.
func (sm *SecretManager) Overlay(ctx context.Context, cfg *config.Config) ([]string, error) {
	secrets, err := sm.ReadSecrets(ctx, cfg.Vault.Path)
	if err != nil {
		return nil, err
	}

	applied := ApplySecrets(cfg, secrets)
	sm.log.Info("Applied secrets from vault",
		zap.String("path", cfg.Vault.Path),
		zap.Strings("keys", applied),
	)
	return applied, nil
}

// ApplySecrets copies known secret keys into cfg.
func ApplySecrets(cfg *config.Config, secrets map[string]string) []string {
	targets := map[string]*string{
		"mistral_api_key":    &cfg.Mistral.APIKey,
		"elevenlabs_api_key": &cfg.ElevenLabs.APIKey,
		"sendgrid_api_key":   &cfg.Notification.Email.APIKey,
		"smtp_password":      &cfg.Notification.Email.SMTPPassword,
		"database_url":       &cfg.Database.URL,
		"redis_url":          &cfg.Redis.URL,
		"jwt_secret":         &cfg.JWT.Secret,
	}

	var applied []string
	for _, key := range []string{
		"mistral_api_key",
		"elevenlabs_api_key",
		"sendgrid_api_key",
		"smtp_password",
		"database_url",
		"redis_url",
		"jwt_secret",
	} {
		if v := secrets[key]; v != "" {
			*targets[key] = v
			applied = append(applied, key)
		}
	}
	return applied
}
