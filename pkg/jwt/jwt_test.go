package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_FirmaYVerifica(t *testing.T) {
	s, err := NewSigner("secreto", "stock-ledger", time.Hour)
	require.NoError(t, err)

	tok, err := s.Sign(Identity{UserID: "u1", CompanyID: "c1", Role: "bodeguero"})
	require.NoError(t, err)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", CompanyID: "c1", Role: "bodeguero"}, id)
}

func TestSigner_RechazaTokensInvalidos(t *testing.T) {
	s, err := NewSigner("secreto", "stock-ledger", time.Hour)
	require.NoError(t, err)
	other, err := NewSigner("otro", "stock-ledger", time.Hour)
	require.NoError(t, err)
	foreign, err := NewSigner("secreto", "otro-emisor", time.Hour)
	require.NoError(t, err)

	expired, err := s.SignWithTTL(Identity{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := other.Sign(Identity{UserID: "u1"})
	require.NoError(t, err)
	wrongIssuer, err := foreign.Sign(Identity{UserID: "u1"})
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expirado":    expired,
		"otra firma":  wrongKey,
		"otro emisor": wrongIssuer,
		"mal formado": "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewSigner_RequiereSecret(t *testing.T) {
	_, err := NewSigner("", "x", time.Hour)
	assert.Error(t, err)
}
