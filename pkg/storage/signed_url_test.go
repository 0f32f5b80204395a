package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("tt-1", "tt-1/20250101T000000-timetable.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "tt-1", parsed.TimetableID)
	require.Equal(t, "tt-1/20250101T000000-timetable.pdf", parsed.Path)
	require.True(t, expiresAt.Equal(parsed.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }
	token, _, err := signer.Generate("tt-1", "tt-1/file.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	parsed, err := signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.Equal(t, "tt-1/file.csv", parsed.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("tt-1", "tt-1/file.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "tt-2"
	_, err = signer.Parse(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSignedURLSigner("other", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = signer.Parse("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Generate("tt-1", "file.csv")
	require.Error(t, err)

	_, _, err = NewSignedURLSigner("secret", time.Hour).Generate("tt.1", "file.csv")
	require.Error(t, err)
}
