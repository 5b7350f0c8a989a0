package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"rentory/internal/settings/repository"
	"rentory/pkg/config"
	apperrors "rentory/pkg/errors"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const maxRecipients = 50

type SettingsService interface {
	EmailRecipients(ctx context.Context) ([]string, error)
	UpdateEmailRecipients(ctx context.Context, recipients []string) ([]string, error)
}

type settingsService struct {
	repo repository.SettingsRepository
	cfg  *config.Config
}

func NewSettingsService(repo repository.SettingsRepository, cfg *config.Config) SettingsService {
	return &settingsService{repo: repo, cfg: cfg}
}

func (s *settingsService) EmailRecipients(ctx context.Context) ([]string, error) {
	recipients, err := s.repo.EmailRecipients(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load email recipients", "error", err)
		return nil, apperrors.Internal("Failed to load email recipients", err)
	}
	return recipients, nil
}

// UpdateEmailRecipients normalizes, validates, and deduplicates the
// incoming list before storing it. An empty list is allowed and turns
// notifications off.
func (s *settingsService) UpdateEmailRecipients(ctx context.Context, recipients []string) ([]string, error) {
	if len(recipients) > maxRecipients {
		return nil, apperrors.InvalidInput(fmt.Sprintf("At most %d recipients are allowed", maxRecipients))
	}

	normalized := make([]string, 0, len(recipients))
	seen := make(map[string]struct{}, len(recipients))
	for _, raw := range recipients {
		addr := strings.ToLower(strings.TrimSpace(raw))
		if addr == "" {
			continue
		}
		if !emailRegex.MatchString(addr) {
			return nil, apperrors.Validation("Invalid email address", map[string]any{"address": raw})
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		normalized = append(normalized, addr)
	}

	if err := s.repo.SetEmailRecipients(ctx, normalized); err != nil {
		s.cfg.Log.Error("Failed to store email recipients", "error", err)
		return nil, apperrors.Internal("Failed to store email recipients", err)
	}

	s.cfg.Log.Info("Email recipients updated", "count", len(normalized))
	return normalized, nil
}
