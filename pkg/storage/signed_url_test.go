package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("photo-1", "compressed/u1_photo-1_123_compressed.jpg")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	photoID, path, parsedExp, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "photo-1", photoID)
	require.Equal(t, "compressed/u1_photo-1_123_compressed.jpg", path)
	require.WithinDuration(t, expiresAt, parsedExp, time.Second)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, _, err := signer.Generate("photo-1", "original/a.jpg")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token + "x")
	require.Error(t, err)

	other := NewSignedURLSigner("other-secret", time.Minute)
	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLExpires(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("photo-1", "original/a.jpg")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestSignedURLRequiresInput(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	_, _, err := signer.Generate("", "original/a.jpg")
	require.Error(t, err)

	_, _, err = signer.Generate("photo-1", "")
	require.Error(t, err)
}
