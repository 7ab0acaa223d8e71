// Package luafunc compiles Lua source into integrands for mcquad.
//
// A program sees the sampled point as the 1-indexed table x and yields
// the function value. The source is either a single expression
//
//	4 * (x[1]^2 + x[2]^2 <= 1 and 1 or 0)
//
// or a chunk ending in a return statement:
//
//	local r2 = x[1]^2 + x[2]^2
//	return math.exp(-r2)
//
// A boolean result counts as 1 or 0, so indicator functions can be
// written as plain comparisons.
//
// gopher-lua states are not goroutine-safe. A Program keeps a pool of
// states, one per concurrently evaluating worker, each running the same
// compiled bytecode.
package luafunc

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/baxromumarov/mcquad"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// ErrNotNumber is returned when a program yields something other than a
// number or a boolean.
var ErrNotNumber = errors.New("luafunc: program did not return a number")

// Program is a compiled Lua integrand. It is safe for concurrent use.
type Program struct {
	name   string
	proto  *lua.FunctionProto
	states sync.Pool
}

// state is one Lua VM with the program loaded, owned by one goroutine
// at a time.
type state struct {
	L  *lua.LState
	fn *lua.LFunction
	x  *lua.LTable
}

// Compile parses and compiles src. name labels the program in error
// messages.
func Compile(name, src string) (*Program, error) {
	proto, err := compile(name, "return "+src)
	if err != nil {
		// Not an expression: compile it as a chunk.
		proto, err = compile(name, src)
		if err != nil {
			return nil, fmt.Errorf("luafunc: compile %s: %w", name, err)
		}
	}

	p := &Program{name: name, proto: proto}
	p.states.New = func() any {
		return p.newState()
	}
	return p, nil
}

func compile(name, body string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader("local x = ...; "+body), name)
	if err != nil {
		return nil, err
	}
	return lua.Compile(chunk, name)
}

func (p *Program) newState() *state {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)

	return &state{
		L:  L,
		fn: L.NewFunctionFromProto(p.proto),
		x:  L.NewTable(),
	}
}

// openSafeLibraries opens the libraries a numeric integrand can need.
// io, os, debug and package are left out, together with every base
// function that loads code.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Name returns the label given to Compile.
func (p *Program) Name() string {
	return p.name
}

// Eval runs the program at x. Lua runtime errors are returned as errors.
func (p *Program) Eval(x []float64) (float64, error) {
	st := p.states.Get().(*state)
	defer p.states.Put(st)

	for i, v := range x {
		st.x.RawSetInt(i+1, lua.LNumber(v))
	}

	L := st.L
	top := L.GetTop()
	L.Push(st.fn)
	L.Push(st.x)
	if err := L.PCall(1, 1, nil); err != nil {
		L.SetTop(top)
		return 0, fmt.Errorf("luafunc: %s: %w", p.name, err)
	}

	ret := L.Get(-1)
	L.SetTop(top)

	switch v := ret.(type) {
	case lua.LNumber:
		return float64(v), nil
	case lua.LBool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %s returned %s", ErrNotNumber, p.name, ret.Type())
	}
}

// Func adapts the program to an mcquad integrand.
func (p *Program) Func() mcquad.Func[float64] {
	return p.Eval
}
