package pydck

import (
	"os"

	"github.com/go-python/gpython/py"
	"github.com/pkg/errors"
	"github.com/pytrnsys/godck/batch"
	"github.com/pytrnsys/godck/dck"
	"github.com/pytrnsys/godck/libdck"
	"github.com/pytrnsys/godck/libdck/scalars"
)

var (
	LIB_VERSION = "v1.2024.1"
)

const kWorkspaceAttr = "_workspace"

var (
	pyStoreType     = py.NewType("Store", "a scalar table holding one row of constants per simulation")
	pyWorkspaceType = py.NewType("Workspace", "collects the stores opened by a script")
)

// Workspace closes what a script leaves open once its context closes.
type Workspace struct {
	stores []*scalars.Store
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func (ws *Workspace) Close() {
	for _, store := range ws.stores {
		store.Close()
	}
	ws.stores = nil
}

func getWorkspace(module py.Object) *Workspace {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		wsObj = &Workspace{}
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj.(*Workspace)
}

func valueToPy(v dck.Value) py.Object {
	if i, isInt := v.Int64(); isInt {
		return py.Int(i)
	}
	return py.Float(v.Float64())
}

func valueFromPy(obj py.Object) (dck.Value, error) {
	switch x := obj.(type) {
	case py.Int:
		return dck.Int(int64(x)), nil
	case py.Float:
		return dck.Float(float64(x)), nil
	case py.Bool:
		return dck.Bool(bool(x)), nil
	}
	return dck.Value{}, py.ExceptionNewf(py.TypeError, "expected int or float (got %v)", obj.Type().Name)
}

func constantsToPy(constants dck.Constants) py.StringDict {
	dict := py.NewStringDict()
	for name, v := range constants {
		dict[name] = valueToPy(v)
	}
	return dict
}

func constantsFromPy(obj py.Object) (dck.Constants, error) {
	dict, ok := obj.(py.StringDict)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected dict (got %v)", obj.Type().Name)
	}
	constants := make(dck.Constants, len(dict))
	for name, item := range dict {
		v, err := valueFromPy(item)
		if err != nil {
			return nil, err
		}
		constants[name] = v
	}
	return constants, nil
}

func warningsToPy(diags []dck.Diagnostic) *py.List {
	warnings := make([]string, len(diags))
	for i, diag := range diags {
		warnings[i] = diag.String()
	}
	return py.NewListFromStrings(warnings)
}

func extractResult(deckText string) py.Object {
	constants, diags := libdck.Extract(deckText)
	return py.Tuple{constantsToPy(constants), warningsToPy(diags)}
}

// Arg 1 (str): deck text
func py_Extract(module py.Object, args py.Tuple) (py.Object, error) {
	var deckText string
	err := py.LoadTuple(args, []interface{}{&deckText})
	if err != nil {
		return nil, err
	}
	return extractResult(deckText), nil
}

// Arg 1 (str): deck pathname
func py_ExtractFile(module py.Object, args py.Tuple) (py.Object, error) {
	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}
	deckText, err := batch.ReadDeck(pathname)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		return nil, py.ExceptionNewf(py.OSError, "%v", err)
	}
	return extractResult(deckText), nil
}

// Arg 1 (str): deck text
func py_Equations(module py.Object, args py.Tuple) (py.Object, error) {
	var deckText string
	err := py.LoadTuple(args, []interface{}{&deckText})
	if err != nil {
		return nil, err
	}
	return py.NewListFromStrings(libdck.Equations(deckText)), nil
}

// Arg 1 (str): simulation folder
// kwargs: pattern (str)
func py_ProcessSimulation(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	var simDir string
	err := py.LoadTuple(args, []interface{}{&simDir})
	if err != nil {
		return nil, err
	}
	pattern := batch.DefaultDeckPattern
	if kwargs != nil {
		py.LoadAttr(kwargs, "pattern", &pattern)
	}

	sim, err := batch.ProcessSimulation(simDir, pattern)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	warnings := make([]string, len(sim.Diagnostics))
	for i, dd := range sim.Diagnostics {
		warnings[i] = dd.String()
	}
	return py.Tuple{constantsToPy(sim.Constants), py.NewListFromStrings(warnings)}, nil
}

type pyStore struct {
	*scalars.Store
}

func (store pyStore) Type() *py.Type {
	return pyStoreType
}

// Arg 1 (str, optional): db pathname; in-memory if omitted or empty
func py_OpenStore(module py.Object, args py.Tuple) (py.Object, error) {
	var pathname string
	if len(args) > 0 {
		err := py.LoadTuple(args, []interface{}{&pathname})
		if err != nil {
			return nil, err
		}
	}

	store, err := scalars.Open(scalars.Opts{
		DbPathName: pathname,
	})
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}

	ws := getWorkspace(module)
	ws.stores = append(ws.stores, store)
	return pyStore{store}, nil
}

func py_Store_Put(self py.Object, args py.Tuple) (py.Object, error) {
	store := self.(pyStore)
	if len(args) != 2 {
		return nil, py.ExceptionNewf(py.TypeError, "put() takes 2 arguments (%d given)", len(args))
	}
	sim, ok := args[0].(py.String)
	if !ok {
		return nil, py.ExceptionNewf(py.TypeError, "expected str simulation name (got %v)", args[0].Type().Name)
	}
	constants, err := constantsFromPy(args[1])
	if err != nil {
		return nil, err
	}
	if err = store.Put(string(sim), constants); err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.None, nil
}

func py_Store_Get(self py.Object, args py.Tuple) (py.Object, error) {
	store := self.(pyStore)
	var sim string
	err := py.LoadTuple(args, []interface{}{&sim})
	if err != nil {
		return nil, err
	}
	constants, err := store.Get(sim)
	if errors.Is(err, dck.ErrSimNotFound) {
		return nil, py.ExceptionNewf(py.KeyError, "%v", err)
	}
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return constantsToPy(constants), nil
}

func py_Store_Simulations(self py.Object, args py.Tuple) (py.Object, error) {
	store := self.(pyStore)
	sims, err := store.Simulations()
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.NewListFromStrings(sims), nil
}

// Arg 1 (str): csv pathname
func py_Store_WriteCSV(self py.Object, args py.Tuple) (py.Object, error) {
	store := self.(pyStore)
	var pathname string
	err := py.LoadTuple(args, []interface{}{&pathname})
	if err != nil {
		return nil, err
	}

	tbl, err := store.Table()
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
	}
	err = tbl.WriteCSV(file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, py.ExceptionNewf(py.OSError, "%v", err)
	}
	return py.None, nil
}

func py_Store_Close(self py.Object, args py.Tuple) (py.Object, error) {
	store := self.(pyStore)
	if err := store.Close(); err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.None, nil
}

func init() {

	/////////////////////////////////
	// Store
	{
		pyStoreType.Dict["put"] = py.MustNewMethod("put", py_Store_Put, 0, "put(sim, constants) replaces the row of a simulation")
		pyStoreType.Dict["get"] = py.MustNewMethod("get", py_Store_Get, 0, "get(sim) returns the row of a simulation as a dict")
		pyStoreType.Dict["simulations"] = py.MustNewMethod("simulations", py_Store_Simulations, 0, "lists the stored simulations")
		pyStoreType.Dict["write_csv"] = py.MustNewMethod("write_csv", py_Store_WriteCSV, 0, "write_csv(pathname) writes the scalar table")
		pyStoreType.Dict["close"] = py.MustNewMethod("close", py_Store_Close, 0, "")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("extract", py_Extract, 0, "extract(text) returns (constants, warnings) of a deck"),
			py.MustNewMethod("extract_file", py_ExtractFile, 0, "extract_file(pathname) returns (constants, warnings) of a deck file"),
			py.MustNewMethod("equations", py_Equations, 0, "equations(text) lists the declarations of a deck as name=expression"),
			py.MustNewMethod("process_simulation", py_ProcessSimulation, 0, "process_simulation(folder, pattern='*.dck') merges the decks of a simulation folder"),
			py.MustNewMethod("open_store", py_OpenStore, 0, "open_store(pathname='') opens a scalar table"),
		}

		funcNames := libdck.FuncNames()
		functions := make(py.Tuple, len(funcNames))
		for i, name := range funcNames {
			functions[i] = py.String(name)
		}

		globals := py.StringDict{
			"LIB_VERSION": py.String(LIB_VERSION),
			"FUNCTIONS":   functions,
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "dck",
				Doc:  "TRNSYS deck constants extraction",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}
