// Package gateway dispatches metered chat requests to upstream AI
// providers. It resolves the catalog entry, decrypts the provider
// credential just in time, and hands the call to the matching adapter.
// The plaintext secret lives only for the duration of the call.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"creditgate/internal/models"
	"creditgate/internal/providers"
	"creditgate/internal/storage"
	"creditgate/internal/utils"
)

// ErrCredentialNotConfigured is returned when a catalog entry's
// provider has no stored credential.
var ErrCredentialNotConfigured = errors.New("provider credential not configured")

// CatalogStore loads callable catalog entries.
type CatalogStore interface {
	GetCallable(ctx context.Context, id uuid.UUID) (*models.CatalogModel, error)
}

// CredentialStore loads encrypted provider credentials.
type CredentialStore interface {
	GetByProvider(ctx context.Context, provider string) (*models.ProviderCredential, error)
}

// Unsealer decrypts a stored credential ciphertext.
type Unsealer interface {
	Open(ciphertext, iv string) (string, error)
}

// Toucher stamps last-used times without blocking the request.
type Toucher interface {
	TouchCredential(ctx context.Context, provider string)
}

// TestResult is the outcome of a credential connectivity check.
type TestResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ResponseTimeMs int64  `json:"response_time_ms"`
}

// Service resolves and dispatches provider calls.
type Service struct {
	catalog     CatalogStore
	credentials CredentialStore
	vault       Unsealer
	registry    *providers.Registry
	toucher     Toucher
	logger      *utils.Logger
}

// NewService creates a gateway service. A nil toucher disables
// last-used stamping.
func NewService(catalog CatalogStore, credentials CredentialStore, vault Unsealer, registry *providers.Registry, toucher Toucher) *Service {
	return &Service{
		catalog:     catalog,
		credentials: credentials,
		vault:       vault,
		registry:    registry,
		toucher:     toucher,
		logger:      utils.NewLogger("gateway"),
	}
}

// ResolveModel loads a callable catalog entry by ID. Disabled or
// missing entries both come back as storage.ErrModelNotFound.
func (s *Service) ResolveModel(ctx context.Context, id uuid.UUID) (*models.CatalogModel, error) {
	return s.catalog.GetCallable(ctx, id)
}

// resolveSecret loads and decrypts the credential for a provider. The
// not-configured and decryption-failure cases stay distinct: the first
// is an admin setup gap, the second means the master key and stored
// data disagree.
func (s *Service) resolveSecret(ctx context.Context, provider string) (string, error) {
	cred, err := s.credentials.GetByProvider(ctx, provider)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			return "", fmt.Errorf("%w: %s", ErrCredentialNotConfigured, provider)
		}
		return "", err
	}

	secret, err := s.vault.Open(cred.Ciphertext, cred.IV)
	if err != nil {
		return "", fmt.Errorf("failed to unseal %s credential: %w", provider, err)
	}
	return secret, nil
}

// DispatchChat resolves the adapter and credential for the catalog
// entry and forwards the chat call. No timeout is imposed here beyond
// the caller's context; generation latency is the caller's budget.
func (s *Service) DispatchChat(ctx context.Context, model *models.CatalogModel, messages []providers.Message, opts providers.ChatOptions) (*providers.ChatResult, error) {
	adapter, err := s.registry.Resolve(model.Provider)
	if err != nil {
		return nil, err
	}

	secret, err := s.resolveSecret(ctx, model.Provider)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Chat(ctx, secret, model.UpstreamModel, messages, opts)
	if err != nil {
		return nil, err
	}

	if s.toucher != nil {
		s.toucher.TouchCredential(ctx, model.Provider)
	}

	s.logger.Debug("Dispatched chat",
		"provider", model.Provider,
		"model", model.UpstreamModel,
		"latency_ms", result.Latency.Milliseconds(),
		"total_tokens", result.Usage.TotalTokens)

	return result, nil
}

// TestConnection checks that a provider's stored credential is accepted
// upstream. Failures are reported in the result, not as an error, so
// the admin UI can always render the outcome.
func (s *Service) TestConnection(ctx context.Context, provider string) *TestResult {
	start := time.Now()

	fail := func(err error) *TestResult {
		return &TestResult{
			Success:        false,
			Message:        err.Error(),
			ResponseTimeMs: time.Since(start).Milliseconds(),
		}
	}

	adapter, err := s.registry.Resolve(provider)
	if err != nil {
		return fail(err)
	}

	secret, err := s.resolveSecret(ctx, provider)
	if err != nil {
		return fail(err)
	}

	if err := adapter.Test(ctx, secret); err != nil {
		return fail(err)
	}

	if s.toucher != nil {
		s.toucher.TouchCredential(ctx, provider)
	}

	return &TestResult{
		Success:        true,
		Message:        "connection ok",
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
}
