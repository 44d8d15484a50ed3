package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/sealshare/internal/crypto"
	"github.com/TheMichaelB/sealshare/internal/models"
	"github.com/TheMichaelB/sealshare/test/testutil"
)

// runCLI executes the root command with fresh flag state.
func runCLI(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()

	cfgFile, jsonOutput, verbose = "", false, false
	shareTitle, shareLanguage, shareExpiry, shareVisibility = "", "", "", ""
	sharePassword, sharePromptPassword, shareNoHistory = "", false, false
	openPassword, openPromptPassword, openOut = "", false, ""
	cryptPassword, cryptPromptPassword, decryptKey, decryptOut = "", false, "", ""
	historyClearYes, historyShowLink, historyMigrateTo = false, true, "sqlite"
	configInitForce = false

	var out, errOut bytes.Buffer
	stdout, stderr, stdin = &out, &errOut, strings.NewReader(input)

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if cerr := teardown(nil, nil); err == nil {
		err = cerr
	}
	return out.String(), errOut.String(), err
}

func setupEnv(t *testing.T) *testutil.TestServer {
	t.Helper()

	server := testutil.NewTestServer()
	t.Cleanup(server.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SEALSHARE_API_BASE_URL", server.URL)
	t.Setenv("SEALSHARE_API_MAX_RETRIES", "0")
	t.Setenv("SEALSHARE_HISTORY_DIR", filepath.Join(home, "history"))
	t.Setenv("SEALSHARE_LOG_LEVEL", "error")
	t.Setenv("SEALSHARE_LOG_COLOR", "false")

	// No controlling terminal unless a test installs one
	origTTY, origIsTerminal, origRead := ttyPath, isTerminal, readPassword
	ttyPath = filepath.Join(home, "no-tty")
	t.Cleanup(func() { ttyPath, isTerminal, readPassword = origTTY, origIsTerminal, origRead })

	return server
}

func TestShareAndOpen(t *testing.T) {
	setupEnv(t)

	link, _, err := runCLI(t, "hello from stdin\n", "share", "-")
	require.NoError(t, err)
	link = strings.TrimSpace(link)
	assert.Contains(t, link, "/s/")
	assert.Contains(t, link, "#")

	content, _, err := runCLI(t, "", "open", link)
	require.NoError(t, err)
	assert.Equal(t, "hello from stdin\n", content)
}

func TestShareSendsRequestID(t *testing.T) {
	server := setupEnv(t)

	for i := 0; i < 2; i++ {
		_, _, err := runCLI(t, "tagged", "share")
		require.NoError(t, err)
	}

	ids := server.RequestIDs()
	require.Len(t, ids, 2)
	_, err := uuid.Parse(ids[0])
	assert.NoError(t, err)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestSharePasswordJSON(t *testing.T) {
	server := setupEnv(t)

	out, _, err := runCLI(t, "classified", "share", "--password", "s3cret-pass", "--json", "--expiry", "1h")
	require.NoError(t, err)

	var result struct {
		ID                string `json:"id"`
		URL               string `json:"url"`
		PasswordProtected bool   `json:"password_protected"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.PasswordProtected)
	assert.NotContains(t, result.URL, "#")

	for _, body := range server.Bodies() {
		assert.NotContains(t, string(body), "classified")
		assert.NotContains(t, string(body), "s3cret-pass")
	}

	_, _, err = runCLI(t, "", "open", result.URL, "--json")
	assert.ErrorContains(t, err, "password")

	content, _, err := runCLI(t, "", "open", result.URL, "--password", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "classified", content)
}

func TestShareFileAndHistory(t *testing.T) {
	setupEnv(t)

	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0600))

	_, _, err := runCLI(t, "", "share", path)
	require.NoError(t, err)

	out, _, err := runCLI(t, "", "history", "list", "--json")
	require.NoError(t, err)

	var entries []struct {
		SnippetID string `json:"snippet_id"`
		Title     string `json:"title"`
		Language  string `json:"language"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "main.go", entries[0].Title)
	assert.Equal(t, "go", entries[0].Language)

	out, _, err = runCLI(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, entries[0].SnippetID)

	_, _, err = runCLI(t, "", "delete", entries[0].SnippetID)
	require.NoError(t, err)

	out, _, err = runCLI(t, "", "history", "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestHistoryCommands(t *testing.T) {
	setupEnv(t)

	for i := 0; i < 2; i++ {
		_, _, err := runCLI(t, "x", "share")
		require.NoError(t, err)
	}

	_, _, err := runCLI(t, "", "history", "clear")
	assert.ErrorContains(t, err, "--yes")

	_, _, err = runCLI(t, "", "history", "prune")
	require.NoError(t, err)

	out, _, err := runCLI(t, "", "history", "migrate", "--to", "sqlite", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"migrated": 2`)

	_, _, err = runCLI(t, "", "history", "clear", "--yes")
	require.NoError(t, err)

	_, _, err = runCLI(t, "", "history", "show", "nope")
	assert.Error(t, err)
}

func TestEncryptDecryptOffline(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "offline secret", "encrypt", "--json")
	require.NoError(t, err)

	var sealed struct {
		Envelope json.RawMessage `json:"envelope"`
		Key      string          `json:"key"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sealed))
	assert.NotContains(t, string(sealed.Envelope), "salt")

	plaintext, _, err := runCLI(t, string(sealed.Envelope), "decrypt", "--key", sealed.Key)
	require.NoError(t, err)
	assert.Equal(t, "offline secret", plaintext)

	// Wrong key
	other := crypto.EncodeKey(make([]byte, crypto.KeySize))
	_, _, err = runCLI(t, string(sealed.Envelope), "decrypt", "--key", other)
	assert.ErrorIs(t, err, crypto.ErrAuthenticationFailure)

	// Missing key
	_, _, err = runCLI(t, string(sealed.Envelope), "decrypt")
	assert.ErrorContains(t, err, "--key")
}

func TestEncryptDecryptPassword(t *testing.T) {
	setupEnv(t)

	envelope, _, err := runCLI(t, "pw secret", "encrypt", "--password", "correct horse")
	require.NoError(t, err)
	assert.Contains(t, envelope, `"salt"`)

	plaintext, _, err := runCLI(t, envelope, "decrypt", "--password", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "pw secret", plaintext)

	_, _, err = runCLI(t, envelope, "decrypt", "--password", "battery staple")
	assert.ErrorIs(t, err, crypto.ErrAuthenticationFailure)
}

func TestKeygen(t *testing.T) {
	setupEnv(t)

	out, _, err := runCLI(t, "", "keygen")
	require.NoError(t, err)

	key, err := crypto.DecodeKey(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeySize)
}

func TestParseKeyFlag(t *testing.T) {
	key := make([]byte, crypto.KeySize)
	key[0] = 0xfb

	got, err := parseKeyFlag(crypto.EncodeKey(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = parseKeyFlag("https://sealshare.dev/s/abc#" + crypto.EncodeKey(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = parseKeyFlag("a+b/")
	assert.ErrorIs(t, err, crypto.ErrInvalidEncoding)

	_, err = parseKeyFlag(crypto.EncodeKey(key[:16]))
	assert.ErrorIs(t, err, crypto.ErrMalformedInput)
}

func TestLanguageFromPath(t *testing.T) {
	assert.Equal(t, "go", languageFromPath("cmd/main.go"))
	assert.Equal(t, "yaml", languageFromPath("x.YML"))
	assert.Equal(t, "", languageFromPath("Makefile"))
}

func TestConfigInitAndShow(t *testing.T) {
	server := setupEnv(t)
	t.Setenv("SEALSHARE_API_TOKEN", "very-secret")
	path := filepath.Join(t.TempDir(), "conf", "config.json")

	_, _, err := runCLI(t, "", "config", "init", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, _, err = runCLI(t, "", "config", "init", path)
	assert.ErrorContains(t, err, "already exists")
	_, _, err = runCLI(t, "", "config", "init", "--force", path)
	require.NoError(t, err)

	out, _, err := runCLI(t, "", "--config", path, "--json", "config", "show")
	require.NoError(t, err)

	var shown map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, server.URL, shown["api"]["base_url"])
	assert.Equal(t, "***", shown["api"]["token"])
	assert.NotContains(t, out, "very-secret")
}

func TestShareRejectsBinary(t *testing.T) {
	server := setupEnv(t)

	_, _, err := runCLI(t, "MZ\x00\x00\x03", "share")
	assert.ErrorIs(t, err, models.ErrBinaryContent)
	assert.Empty(t, server.Bodies())
}

// fakeTerminal makes password prompts answer from passwords in order.
func fakeTerminal(t *testing.T, passwords ...string) {
	t.Helper()

	tty := filepath.Join(t.TempDir(), "tty")
	require.NoError(t, os.WriteFile(tty, nil, 0600))
	ttyPath = tty
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) {
		require.NotEmpty(t, passwords, "unexpected password prompt")
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}
}

func TestSharePipedContentWithPrompt(t *testing.T) {
	server := setupEnv(t)
	fakeTerminal(t, "tty-pass", "tty-pass")

	link, _, err := runCLI(t, "piped secret", "share", "--prompt-password")
	require.NoError(t, err)
	link = strings.TrimSpace(link)
	assert.NotContains(t, link, "#")
	require.Len(t, server.Bodies(), 1)
	assert.NotContains(t, string(server.Bodies()[0]), "piped secret")

	content, _, err := runCLI(t, "", "open", link, "--password", "tty-pass")
	require.NoError(t, err)
	assert.Equal(t, "piped secret", content)
}

func TestPromptWithoutTerminal(t *testing.T) {
	server := setupEnv(t)

	_, _, err := runCLI(t, "piped secret", "share", "--prompt-password")
	assert.ErrorIs(t, err, errNoTerminal)
	assert.Empty(t, server.Bodies())

	envelope, _, err := runCLI(t, "pw secret", "encrypt", "--password", "pw")
	require.NoError(t, err)
	_, _, err = runCLI(t, envelope, "decrypt")
	assert.ErrorIs(t, err, errNoTerminal)
}

func TestDecryptPipedEnvelopeWithPrompt(t *testing.T) {
	setupEnv(t)

	envelope, _, err := runCLI(t, "pw secret", "encrypt", "--password", "pw")
	require.NoError(t, err)

	fakeTerminal(t, "pw")
	plaintext, _, err := runCLI(t, envelope, "decrypt")
	require.NoError(t, err)
	assert.Equal(t, "pw secret", plaintext)
}
