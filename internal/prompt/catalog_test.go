package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customTemplates = `
[templates.post_surgery]
name = "Post Surgery"
purpose = "Post-surgery check"
questions = ["How is the incision healing?", "On a scale from 1 to 10, how is your pain?"]

[templates.standard_protocol]
name = "Clinic Standard"
purpose = "Routine check"
questions = ["How are you?"]
voice_id = "voice_x"
`

func writeTemplates(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "templates.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewCatalog_BuiltinsOnly(t *testing.T) {
	c, err := NewCatalog("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"diabetes_protocol", "hypertension_protocol", "standard_protocol"}, c.Keys())
}

func TestNewCatalog_MissingFile(t *testing.T) {
	c, err := NewCatalog(filepath.Join(t.TempDir(), "absent.toml"), nil)
	require.NoError(t, err)
	assert.Len(t, c.All(), 3)
}

func TestNewCatalog_FileOverrides(t *testing.T) {
	path := writeTemplates(t, t.TempDir(), customTemplates)
	c, err := NewCatalog(path, nil)
	require.NoError(t, err)

	assert.Len(t, c.All(), 4)

	surgery, err := c.Get("post_surgery")
	require.NoError(t, err)
	assert.Equal(t, "Post Surgery", surgery.Name)
	assert.Equal(t, defaultVoice, surgery.VoiceID)
	assert.Equal(t, "en", surgery.Language)

	std, err := c.Get("standard_protocol")
	require.NoError(t, err)
	assert.Equal(t, "Clinic Standard", std.Name)
	assert.Equal(t, "voice_x", std.VoiceID)
}

func TestNewCatalog_InvalidFile(t *testing.T) {
	tests := map[string]string{
		"bad toml":       "[templates.x\nname=",
		"missing name":   "[templates.x]\npurpose = \"p\"\n",
		"empty question": "[templates.x]\nname = \"n\"\nquestions = [\"\"]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(writeTemplates(t, t.TempDir(), content), nil)
			assert.Error(t, err)
		})
	}
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c, err := NewCatalog("", nil)
	require.NoError(t, err)

	tmpl, err := c.Get("standard_protocol")
	require.NoError(t, err)
	tmpl.Questions[0] = "mutated"

	again, err := c.Get("standard_protocol")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Questions[0])

	_, err = c.Get("unknown")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestCatalog_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplates(t, dir, customTemplates)
	c, err := NewCatalog(path, nil)
	require.NoError(t, err)

	writeTemplates(t, dir, "not = [valid")
	assert.Error(t, c.Reload())
	_, err = c.Get("post_surgery")
	assert.NoError(t, err)
}

func TestCatalog_Watch(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplates(t, dir, "")
	c, err := NewCatalog(path, nil)
	require.NoError(t, err)
	require.Len(t, c.All(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeTemplates(t, dir, customTemplates)

	assert.Eventually(t, func() bool {
		_, err := c.Get("post_surgery")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestCatalog_WatchWithoutPath(t *testing.T) {
	c, err := NewCatalog("", nil)
	require.NoError(t, err)
	assert.Error(t, c.Watch(context.Background()))
}
