package shell

import (
	"errors"
	"net/http"
	"time"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("rookery_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// runLine executes a command line and pushes its output, or an ERROR
// string, as the single lua return value.
func runLine(L *lua.LState, line string) int {
	sc := getShell(L)
	cmd, err := extractFields(line)
	if err != nil {
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	r, err := sc.standardModeSwitch(cmd)
	if err != nil {
		log.Err(err).Str("cmd", cmd.cmd).Msg("error-executing-script-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	if r == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

func prefixed(cmd string) lua.LGFunction {
	return func(L *lua.LState) int {
		return runLine(L, cmd+" "+L.OptString(1, ""))
	}
}

func Run(L *lua.LState) int {
	return runLine(L, L.ToString(1))
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{Timeout: 30 * time.Second}).Loader)

	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal("rookery_shell", lsc)
	L.SetGlobal("rookery_run", L.NewFunction(Run))
	L.SetGlobal("rookery_position", L.NewFunction(prefixed("position")))
	L.SetGlobal("rookery_go", L.NewFunction(prefixed("go")))
	L.SetGlobal("rookery_play", L.NewFunction(prefixed("play")))
	L.SetGlobal("rookery_set", L.NewFunction(prefixed("set")))
	L.SetGlobal("rookery_result", L.NewFunction(prefixed("result")))

	sc.syncSearch = true
	defer func() { sc.syncSearch = false }()

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return msg("ran " + filepath), nil
}
