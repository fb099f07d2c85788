package extension

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

// Script entry points a lua-script extension may define.
const (
	luaFnInitialize   = "initialize"
	luaFnShutdown     = "shutdown"
	luaFnCommands     = "commands"
	luaFnHandle       = "handle_command"
	luaFnProcessEvent = "process_event"
)

// luaExtension adapts a sandboxed Lua script to the extension capability set.
//
// gopher-lua's LState is not goroutine-safe; every call into the state goes
// through mu. Only base, table, string, and math libraries are opened — no
// io, os, or debug access from scripts.
type luaExtension struct {
	mu       sync.Mutex
	state    *lua.LState
	manifest *Manifest
	host     Host

	id       uuid.UUID
	name     string
	author   string
	version  string
	commands []string
}

func newLuaExtension(m *Manifest, scriptPath string) (*luaExtension, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	if err := L.DoFile(scriptPath); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	ext := &luaExtension{
		state:    L,
		manifest: m,
		id:       m.UUID(),
		name:     m.Name,
		author:   m.Author,
		version:  m.Version,
	}

	// Scripts may override their manifest metadata through globals; the
	// registry warns on mismatches.
	if v, ok := L.GetGlobal("id").(lua.LString); ok {
		if parsed, err := uuid.Parse(string(v)); err == nil {
			ext.id = parsed
		}
	}
	if v, ok := L.GetGlobal("name").(lua.LString); ok {
		ext.name = string(v)
	}
	if v, ok := L.GetGlobal("author").(lua.LString); ok {
		ext.author = string(v)
	}
	if v, ok := L.GetGlobal("version").(lua.LString); ok {
		ext.version = string(v)
	}

	if err := ext.readCommands(); err != nil {
		L.Close()
		return nil, err
	}

	return ext, nil
}

func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// readCommands calls the script's commands() function, if present, and
// collects the returned table of strings.
func (e *luaExtension) readCommands() error {
	fn, ok := e.state.GetGlobal(luaFnCommands).(*lua.LFunction)
	if !ok {
		return nil
	}

	e.state.Push(fn)
	if err := e.state.PCall(0, 1, nil); err != nil {
		return fmt.Errorf("commands() failed: %w", err)
	}
	ret := e.state.Get(-1)
	e.state.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return fmt.Errorf("commands() must return a table, got %s", ret.Type())
	}
	tbl.ForEach(func(_, value lua.LValue) {
		if s, ok := value.(lua.LString); ok {
			e.commands = append(e.commands, string(s))
		}
	})
	return nil
}

func (e *luaExtension) ID() uuid.UUID   { return e.id }
func (e *luaExtension) Name() string    { return e.name }
func (e *luaExtension) Author() string  { return e.author }
func (e *luaExtension) Version() string { return e.version }

// Initialize runs the script's initialize(host) function. The host table
// exposes send_chat(platform, account_id, target, message).
func (e *luaExtension) Initialize(ctx context.Context, host Host) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.host = host

	hostTable := e.state.NewTable()
	e.state.SetField(hostTable, "send_chat", e.state.NewFunction(func(L *lua.LState) int {
		platform := L.CheckString(1)
		accountID := L.CheckString(2)
		target := L.CheckString(3)
		message := L.CheckString(4)
		if err := host.SendChatMessage(context.Background(), platform, accountID, target, message); err != nil {
			L.Push(lua.LString(err.Error()))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))
	e.state.SetGlobal("host", hostTable)

	fn, ok := e.state.GetGlobal(luaFnInitialize).(*lua.LFunction)
	if !ok {
		return nil
	}
	e.state.Push(fn)
	e.state.Push(hostTable)
	if err := e.state.PCall(1, 0, nil); err != nil {
		return fmt.Errorf("initialize() failed: %w", err)
	}
	return nil
}

// Shutdown runs the script's shutdown() function, then closes the state.
func (e *luaExtension) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.state.Close()

	fn, ok := e.state.GetGlobal(luaFnShutdown).(*lua.LFunction)
	if !ok {
		return nil
	}
	e.state.Push(fn)
	if err := e.state.PCall(0, 0, nil); err != nil {
		return fmt.Errorf("shutdown() failed: %w", err)
	}
	return nil
}

func (e *luaExtension) Commands() []string {
	return e.commands
}

// HandleCommand runs the script's handle_command(command, arguments)
// function. A true return suppresses the original chat line.
func (e *luaExtension) HandleCommand(ctx context.Context, cc CommandContext) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.state.GetGlobal(luaFnHandle).(*lua.LFunction)
	if !ok {
		return false, nil
	}
	e.state.Push(fn)
	e.state.Push(lua.LString(cc.Command))
	e.state.Push(lua.LString(cc.Arguments))
	if err := e.state.PCall(2, 1, nil); err != nil {
		return false, fmt.Errorf("handle_command() failed: %w", err)
	}
	ret := e.state.Get(-1)
	e.state.Pop(1)
	return lua.LVAsBool(ret), nil
}

// ProcessEvent runs the script's process_event(event) function with a table
// carrying the event's common fields and text payload.
func (e *luaExtension) ProcessEvent(ctx context.Context, ev domain.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.state.GetGlobal(luaFnProcessEvent).(*lua.LFunction)
	if !ok {
		return nil
	}

	tbl := e.state.NewTable()
	e.state.SetField(tbl, "id", lua.LString(ev.ID.String()))
	e.state.SetField(tbl, "kind", lua.LString(string(ev.Kind)))
	e.state.SetField(tbl, "platform", lua.LString(ev.Platform))
	e.state.SetField(tbl, "account_id", lua.LString(ev.AccountID))
	if ev.Chat != nil {
		e.state.SetField(tbl, "username", lua.LString(ev.Chat.Username))
		e.state.SetField(tbl, "text", lua.LString(ev.Chat.Text))
	}
	if ev.Donation != nil {
		e.state.SetField(tbl, "username", lua.LString(ev.Donation.Username))
		e.state.SetField(tbl, "amount", lua.LNumber(ev.Donation.Amount))
		e.state.SetField(tbl, "currency", lua.LString(ev.Donation.Currency))
	}

	e.state.Push(fn)
	e.state.Push(tbl)
	if err := e.state.PCall(1, 0, nil); err != nil {
		return fmt.Errorf("process_event() failed: %w", err)
	}
	return nil
}
