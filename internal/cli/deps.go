package cli

import (
	"context"
	"fmt"

	"jobcopilot/internal/ai"
	"jobcopilot/internal/answer"
	"jobcopilot/internal/auth"
	"jobcopilot/internal/config"
	"jobcopilot/internal/documents"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/server"
	"jobcopilot/internal/store"
)

// loadProfileStore opens the profile document; a missing or malformed
// profile is fatal
func loadProfileStore(path string, logger *errors.Logger) (*store.ProfileStore, error) {
	profiles := store.NewProfileStore(path, logger)
	if err := profiles.Load(); err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", path, err)
	}
	return profiles, nil
}

// newAnswerService builds the LLM client and the answering service on top of it
func newAnswerService(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*answer.Service, *ai.Client, error) {
	client, err := ai.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return answer.NewService(client, logger), client, nil
}

// buildServerDeps wires every component the HTTP API needs. The returned
// cleanup closes the event store and the LLM client.
func buildServerDeps(ctx context.Context, cfg *config.Config, logger *errors.Logger) (server.Deps, func(), error) {
	profiles, err := loadProfileStore(cfg.Profile.Path, logger)
	if err != nil {
		return server.Deps{}, nil, err
	}

	events, err := store.NewEventStore(cfg.Events, logger)
	if err != nil {
		return server.Deps{}, nil, fmt.Errorf("failed to open event store: %w", err)
	}

	signer, err := documents.NewSigner(cfg.Documents)
	if err != nil {
		_ = events.Close()
		return server.Deps{}, nil, fmt.Errorf("failed to create document signer: %w", err)
	}

	answers, client, err := newAnswerService(ctx, cfg, logger)
	if err != nil {
		_ = events.Close()
		return server.Deps{}, nil, err
	}

	cleanup := func() {
		if err := events.Close(); err != nil {
			logger.LogError(err, "Failed to close event store")
		}
		if err := client.Close(); err != nil {
			logger.LogError(err, "Failed to close LLM client")
		}
	}

	return server.Deps{
		Profiles: profiles,
		Events:   events,
		Answers:  answers,
		LLM:      client,
		Signer:   signer,
		Tokens:   auth.NewTokenIssuer(cfg.Auth),
	}, cleanup, nil
}
