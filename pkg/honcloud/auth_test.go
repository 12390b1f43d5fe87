package honcloud

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRefreshTokenPersistence(t *testing.T) {

	path := filepath.Join(t.TempDir(), "token")
	cfg := Config{TokenFile: path}

	a := NewAuth(cfg, zap.NewNop())
	a.storeTokens(tokenResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
	})

	assert.Equal(t, "access-1", a.AccessToken())
	assert.Equal(t, "refresh-1", a.RefreshToken())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "refresh-1", string(data))

	// a fresh Auth resumes from the persisted token
	b := NewAuth(cfg, zap.NewNop())
	assert.Equal(t, "refresh-1", b.loadRefreshToken())
}

func TestStoreTokensKeepsRefreshTokenWhenOmitted(t *testing.T) {

	path := filepath.Join(t.TempDir(), "token")

	a := NewAuth(Config{TokenFile: path}, zap.NewNop())
	a.storeTokens(tokenResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
	})

	// some refresh responses omit the refresh token, the old one stays valid
	a.storeTokens(tokenResponse{
		AccessToken: "access-2",
		ExpiresIn:   3600,
	})

	assert.Equal(t, "access-2", a.AccessToken())
	assert.Equal(t, "refresh-1", a.RefreshToken())

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "refresh-1", string(data))
}

func TestLoadRefreshTokenTrimsWhitespace(t *testing.T) {

	path := filepath.Join(t.TempDir(), "token")
	assert.NoError(t, os.WriteFile(path, []byte("refresh-1\n"), 0o600))

	a := NewAuth(Config{TokenFile: path}, zap.NewNop())
	assert.Equal(t, "refresh-1", a.loadRefreshToken())
}

func TestLoadRefreshTokenMissing(t *testing.T) {

	a := NewAuth(Config{TokenFile: filepath.Join(t.TempDir(), "no-such-file")}, zap.NewNop())
	assert.Equal(t, "", a.loadRefreshToken())

	b := NewAuth(Config{}, zap.NewNop())
	assert.Equal(t, "", b.loadRefreshToken())
}
