package catalog

import (
	"context"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// DefaultLuaTimeout bounds the execution of a catalog script.
const DefaultLuaTimeout = 2 * time.Second

// LoadLua runs a Lua catalog script and builds a catalog from the table it
// returns. The script runs in a sandbox with only the base, table, string and
// math libraries:
//
//	return {
//	  parameters = { { path = "general:gaps_in", popularity = 80, default = 5 } },
//	  recommendations = {
//	    { id = "vfr", type = "param", param = "misc:vfr", value = true },
//	  },
//	}
func LoadLua(path string) (*Static, error) {
	return runLua(path, func(L *lua.LState) error { return L.DoFile(path) })
}

// ParseLua is LoadLua for in-memory source code.
func ParseLua(source, code string) (*Static, error) {
	return runLua(source, func(L *lua.LState) error { return L.DoString(code) })
}

func runLua(source string, exec func(*lua.LState) error) (*Static, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibraries(L)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultLuaTimeout)
	defer cancel()
	L.SetContext(ctx)

	if err := exec(L); err != nil {
		return nil, oops.In("catalog").With("source", source).Wrapf(err, "running lua catalog")
	}

	ret := L.Get(-1)
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, invalid(source, "lua catalog must return a table, got %s", ret.Type())
	}

	converted, err := fromLua(source, tbl, make(map[*lua.LTable]bool))
	if err != nil {
		return nil, err
	}
	doc, ok := converted.(map[string]any)
	if !ok {
		return nil, invalid(source, "lua catalog must return a table with named fields")
	}
	return parseDocument(source, doc)
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// The base library can still load code from disk.
	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// fromLua converts a Lua value to plain Go values. Tables with only
// consecutive integer keys become []any; other tables become map[string]any.
// Numbers stay float64 since Lua has a single number type; integer fields are
// converted when the document is parsed. A table that contains itself is
// rejected.
func fromLua(source string, v lua.LValue, open map[*lua.LTable]bool) (any, error) {
	switch val := v.(type) {
	case lua.LString:
		return string(val), nil
	case lua.LNumber:
		return float64(val), nil
	case lua.LBool:
		return bool(val), nil
	case *lua.LTable:
		if open[val] {
			return nil, invalid(source, "lua catalog table refers to itself")
		}
		open[val] = true
		defer delete(open, val)

		if n := val.MaxN(); n > 0 && isArray(val, n) {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				item, err := fromLua(source, val.RawGetInt(i), open)
				if err != nil {
					return nil, err
				}
				out = append(out, item)
			}
			return out, nil
		}

		out := make(map[string]any)
		var err error
		val.ForEach(func(k, item lua.LValue) {
			ks, ok := k.(lua.LString)
			if !ok || err != nil {
				return
			}
			out[string(ks)], err = fromLua(source, item, open)
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, nil
	}
}

func isArray(t *lua.LTable, n int) bool {
	count := 0
	array := true
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if _, ok := k.(lua.LNumber); !ok {
			array = false
		}
	})
	return array && count == n
}
