package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rentory/pkg/config"
	"rentory/pkg/logger"
)

type mockSettingsRepository struct {
	recipients []string
	getErr     error
	setErr     error
}

func (m *mockSettingsRepository) EmailRecipients(context.Context) ([]string, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.recipients, nil
}

func (m *mockSettingsRepository) SetEmailRecipients(_ context.Context, recipients []string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.recipients = recipients
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func TestUpdateEmailRecipients_NormalizesAndDeduplicates(t *testing.T) {
	repo := &mockSettingsRepository{}
	svc := NewSettingsService(repo, testConfig())

	got, err := svc.UpdateEmailRecipients(context.Background(), []string{
		"  Alice@Example.com ",
		"bob@example.com",
		"alice@example.com",
		"",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"alice@example.com", "bob@example.com"}, got)
	require.Equal(t, got, repo.recipients)
}

func TestUpdateEmailRecipients_RejectsInvalidAddress(t *testing.T) {
	svc := NewSettingsService(&mockSettingsRepository{}, testConfig())

	_, err := svc.UpdateEmailRecipients(context.Background(), []string{"not-an-email"})
	require.Error(t, err)
}

func TestUpdateEmailRecipients_EmptyListAllowed(t *testing.T) {
	repo := &mockSettingsRepository{recipients: []string{"old@example.com"}}
	svc := NewSettingsService(repo, testConfig())

	got, err := svc.UpdateEmailRecipients(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, repo.recipients)
}

func TestEmailRecipients_DefaultsToEmpty(t *testing.T) {
	svc := NewSettingsService(&mockSettingsRepository{}, testConfig())

	got, err := svc.EmailRecipients(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}
