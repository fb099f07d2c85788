package extension

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greeterScript = `
name = "Greeter"
author = "Tester"
version = "1.0.0"

greeted = 0
seen_events = 0

function initialize(host)
end

function shutdown()
end

function commands()
	return {"greet"}
end

function handle_command(cmd, args)
	greeted = greeted + 1
	if args == "" then
		return false
	end
	host.send_chat("twitch", "acct", "viewer", "hello " .. args)
	return true
end

function process_event(event)
	seen_events = seen_events + 1
end
`

func writeLuaExtension(t *testing.T, root, dirName, script string, id uuid.UUID) {
	t.Helper()
	dir := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte(script), 0o644))
	manifest := fmt.Sprintf(`{
		"id": %q, "name": "Greeter", "author": "Tester", "version": "1.0.0",
		"kind": "lua-script", "entryPoint": {"script": "main.lua"}
	}`, id)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifest), 0o644))
}

func TestLuaExtension_CommandRoundTrip(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()
	writeLuaExtension(t, root, "greeter", greeterScript, id)

	reg, sender := newTestRegistry(t, NewLoader(), time.Second)
	require.NoError(t, reg.LoadFrom(context.Background(), root))
	require.Equal(t, 1, reg.ActiveCount())

	assert.Equal(t, []string{"greet"}, reg.Commands())

	handled, suppress := reg.Dispatch(context.Background(), chatEvent("!greet world"))
	assert.True(t, handled)
	assert.True(t, suppress)
	assert.Equal(t, []string{"hello world"}, sender.messages)

	// Handler returning false leaves the message visible.
	handled, suppress = reg.Dispatch(context.Background(), chatEvent("!greet"))
	assert.True(t, handled)
	assert.False(t, suppress)
}

func TestLuaExtension_ProcessEvent(t *testing.T) {
	root := t.TempDir()
	id := uuid.New()
	writeLuaExtension(t, root, "greeter", greeterScript, id)

	reg, _ := newTestRegistry(t, NewLoader(), time.Second)
	require.NoError(t, reg.LoadFrom(context.Background(), root))

	reg.NotifyProcessors(context.Background(), chatEvent("hello"))
	reg.NotifyProcessors(context.Background(), chatEvent("again"))

	// Shutdown still works after event processing; script state is closed.
	reg.Shutdown(context.Background())
	assert.Zero(t, reg.ActiveCount())
}

func TestLuaExtension_ScriptErrorSkipsCandidate(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte("this is not lua ("), 0o644))
	manifest := fmt.Sprintf(`{
		"id": %q, "name": "Broken", "author": "Tester", "version": "1.0.0",
		"kind": "lua-script", "entryPoint": {"script": "main.lua"}
	}`, uuid.New())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifest), 0o644))

	reg, _ := newTestRegistry(t, NewLoader(), time.Second)
	require.NoError(t, reg.LoadFrom(context.Background(), root))
	assert.Zero(t, reg.ActiveCount())
}

func TestLuaExtension_MissingScriptFileSkipsCandidate(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ghost")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := fmt.Sprintf(`{
		"id": %q, "name": "Ghost", "author": "Tester", "version": "1.0.0",
		"kind": "lua-script", "entryPoint": {"script": "nope.lua"}
	}`, uuid.New())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifest), 0o644))

	reg, _ := newTestRegistry(t, NewLoader(), time.Second)
	require.NoError(t, reg.LoadFrom(context.Background(), root))
	assert.Zero(t, reg.ActiveCount())
}
