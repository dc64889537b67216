package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/minefield/internal/minefield"
)

func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestNewGameDefaults(t *testing.T) {
	unsetenv(t, "MINEFIELD_DIFFICULTY", "MINEFIELD_WIDTH", "MINEFIELD_HEIGHT",
		"MINEFIELD_MINES", "MINEFIELD_QUESTIONS")

	g, err := NewGame()
	require.NoError(t, err)

	p, err := g.Params()
	require.NoError(t, err)
	assert.Equal(t, minefield.Params{Width: 8, Height: 8, MineCount: 10}, p)
	assert.False(t, g.Questions)
}

func TestNewGamePresets(t *testing.T) {
	tests := []struct {
		difficulty string
		want       minefield.Params
	}{
		{"easy", minefield.Params{Width: 8, Height: 8, MineCount: 10}},
		{"Medium", minefield.Params{Width: 16, Height: 16, MineCount: 40}},
		{"HARD", minefield.Params{Width: 30, Height: 16, MineCount: 99}},
	}
	for _, test := range tests {
		t.Run(test.difficulty, func(t *testing.T) {
			t.Setenv("MINEFIELD_DIFFICULTY", test.difficulty)
			t.Setenv("MINEFIELD_WIDTH", "3")
			g, err := NewGame()
			require.NoError(t, err)
			p, err := g.Params()
			require.NoError(t, err)
			assert.Equal(t, test.want, p)
		})
	}
}

func TestNewGameCustom(t *testing.T) {
	t.Setenv("MINEFIELD_DIFFICULTY", "custom")
	t.Setenv("MINEFIELD_WIDTH", "12")
	t.Setenv("MINEFIELD_HEIGHT", "5")
	t.Setenv("MINEFIELD_MINES", "7")
	t.Setenv("MINEFIELD_QUESTIONS", "1")

	g, err := NewGame()
	require.NoError(t, err)
	p, err := g.Params()
	require.NoError(t, err)
	assert.Equal(t, minefield.Params{Width: 12, Height: 5, MineCount: 7}, p)
	assert.True(t, g.Questions)
}

func TestNewGameInvalid(t *testing.T) {
	t.Run("difficulty", func(t *testing.T) {
		t.Setenv("MINEFIELD_DIFFICULTY", "insane")
		_, err := NewGame()
		assert.Error(t, err)
	})
	t.Run("width", func(t *testing.T) {
		t.Setenv("MINEFIELD_WIDTH", "wide")
		_, err := NewGame()
		assert.Error(t, err)
	})
	t.Run("too many mines", func(t *testing.T) {
		t.Setenv("MINEFIELD_DIFFICULTY", "custom")
		t.Setenv("MINEFIELD_WIDTH", "2")
		t.Setenv("MINEFIELD_HEIGHT", "2")
		t.Setenv("MINEFIELD_MINES", "4")
		_, err := NewGame()
		assert.ErrorIs(t, err, minefield.ErrInvalidConfiguration)
	})
}

func TestJWT(t *testing.T) {
	j, err := NewJWTWithSecret([]byte("0123456789abcdef"))
	require.NoError(t, err)

	token, err := j.Sign(NewFieldClaims("field-1", time.Hour))
	require.NoError(t, err)

	claims, err := j.ParseFieldClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "field-1", claims.FieldID)

	other, err := NewJWTWithSecret([]byte("fedcba9876543210"))
	require.NoError(t, err)
	_, err = other.ParseFieldClaims(token)
	assert.Error(t, err)

	expired, err := j.Sign(NewFieldClaims("field-1", -time.Minute))
	require.NoError(t, err)
	_, err = j.ParseFieldClaims(expired)
	assert.Error(t, err)

	_, err = NewJWTWithSecret([]byte("short"))
	assert.Error(t, err)
}

func TestDbURL(t *testing.T) {
	unsetenv(t, "DATABASE_URL", "POSTGRES_SSLMODE")
	t.Setenv("POSTGRES_USER", "mines")
	t.Setenv("POSTGRES_PASSWORD", "p@ss word")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("POSTGRES_DB", "minefield")

	url, err := DbURL()
	require.NoError(t, err)
	assert.Equal(t, "postgresql://mines:p%40ss+word@db:5432/minefield?sslmode=disable", url)

	t.Setenv("DATABASE_URL", "postgresql://elsewhere/db")
	url, err = DbURL()
	require.NoError(t, err)
	assert.Equal(t, "postgresql://elsewhere/db", url)
}

func TestAllowedOrigins(t *testing.T) {
	unsetenv(t, "ALLOWED_ORIGINS")
	assert.Nil(t, AllowedOrigins())

	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,,")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AllowedOrigins())
}

func TestAddr(t *testing.T) {
	unsetenv(t, "APP_ADDR")
	assert.Equal(t, ":8080", Addr())

	t.Setenv("APP_ADDR", "127.0.0.1:9000")
	assert.Equal(t, "127.0.0.1:9000", Addr())
}
