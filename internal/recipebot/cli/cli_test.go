package cli

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("LLM_DEFAULT_PROVIDER", "mock")
	t.Setenv("MEMORY_STORE_TYPE", "memory")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "recipebot dev\n", out)
}

func TestChatSession(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "/collect Mapo Tofu\n\n/history\n/detail\n/quit\n/help\n", "chat", "--user", "42")
	require.NoError(t, err)

	assert.Contains(t, out, "The recipe Mapo Tofu has been collected.")
	assert.Contains(t, out, "List of collected recipes:\nMapo Tofu")
	assert.Contains(t, out, "Usage: /detail <recipe_name>")
	assert.NotContains(t, out, "Hello, I'm a professional recipe recommendation bot", "input after /quit is ignored")
}

func TestChatWithRedisStore(t *testing.T) {
	setupEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("MEMORY_STORE_TYPE", "redis")
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())

	_, err := execute(t, "/collect Mapo Tofu\n/popular\n", "chat", "--user", "42")
	require.NoError(t, err)

	members, err := mr.Members("user_42_favorites")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mapo Tofu"}, members)

	recent, err := mr.List("recipebot:recent:42")
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestChatRejectsInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("LLM_DEFAULT_PROVIDER", "openai")

	_, err := execute(t, "", "chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `llm provider "openai" is not configured`)
}

func TestToken(t *testing.T) {
	setupEnv(t)
	t.Setenv("JWT_SECRET_KEY", "cli-secret")

	out, err := execute(t, "", "token", "--user", "42", "--ttl", "1h")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (interface{}, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "42", sub)

	_, err = execute(t, "", "token")
	assert.Error(t, err)
}

func TestTokenRequiresSecret(t *testing.T) {
	setupEnv(t)
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := execute(t, "", "token", "--user", strconv.Itoa(42))
	assert.Error(t, err)
}
