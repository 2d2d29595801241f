package scalars

import (
	"bytes"
	"encoding/csv"
	"io"
	"runtime"
	"strconv"

	"github.com/dgraph-io/badger/v3"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/gogo/protobuf/types"
	"github.com/pkg/errors"
	"github.com/pytrnsys/godck/dck"
)

/***

Scalar store format:

	gRowPrefix, SimName            => types.Struct
		ConstantName               => NumberValue (float) | StringValue (decimal int64)

Ints are kept as decimal strings since a NumberValue is a double and would lose the
int/float distinction of dck.Value (and int64 precision).

***/

var (
	gRowPrefix = []byte{0x00, 0x01}
)

// Opts configures Open.
type Opts struct {
	DbPathName string // empty opens an in-memory store
	ReadOnly   bool
}

// Store is a db wrapper holding one row of resolved constants per simulation.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the scalar store at opts.DbPathName.
func Open(opts Opts) (*Store, error) {
	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(dck.ErrBadStoreParam, "DbPathName must be specified for a read-only store")
		}
		dbOpts.InMemory = true
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening scalar store %q", opts.DbPathName)
	}
	return &Store{db: db}, nil
}

func (S *Store) Close() error {
	if S.db == nil {
		return nil
	}
	err := S.db.Close()
	S.db = nil
	return err
}

func (S *Store) checkOpen() error {
	if S.db == nil {
		return dck.ErrStoreClosed
	}
	return nil
}

func rowKey(sim string) []byte {
	key := make([]byte, 0, len(gRowPrefix)+len(sim))
	key = append(key, gRowPrefix...)
	return append(key, sim...)
}

// Put replaces the row of simulation sim.
func (S *Store) Put(sim string, constants dck.Constants) error {
	if err := S.checkOpen(); err != nil {
		return err
	}
	if sim == "" {
		return errors.Wrap(dck.ErrBadStoreParam, "empty simulation name")
	}
	buf, err := encodeRow(constants)
	if err != nil {
		return err
	}
	err = S.db.Update(func(txn *badger.Txn) error {
		return txn.Set(rowKey(sim), buf)
	})
	return errors.Wrapf(err, "storing row %q", sim)
}

// Get returns the row of simulation sim, or an error wrapping dck.ErrSimNotFound.
func (S *Store) Get(sim string) (dck.Constants, error) {
	if err := S.checkOpen(); err != nil {
		return nil, err
	}
	var constants dck.Constants
	err := S.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rowKey(sim))
		if err == badger.ErrKeyNotFound {
			return errors.Wrap(dck.ErrSimNotFound, sim)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			constants, err = decodeRow(val)
			return err
		})
	})
	return constants, err
}

// Simulations returns the names of all stored simulations, in ascending order.
func (S *Store) Simulations() ([]string, error) {
	if err := S.checkOpen(); err != nil {
		return nil, err
	}
	var sims []string
	err := S.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(gRowPrefix); it.ValidForPrefix(gRowPrefix); it.Next() {
			key := it.Item().Key()
			sims = append(sims, string(bytes.TrimPrefix(key, gRowPrefix)))
		}
		return nil
	})
	return sims, err
}

// Row is one simulation's constants.
type Row struct {
	Sim       string
	Constants dck.Constants
}

// Table is every stored row against the union of all constant names.
type Table struct {
	Columns []string // ascending
	Rows    []Row    // by Sim, ascending
}

// Table reads the whole store into a Table.
func (S *Store) Table() (*Table, error) {
	if err := S.checkOpen(); err != nil {
		return nil, err
	}
	tbl := &Table{}
	columns := treeset.NewWithStringComparator()

	err := S.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(gRowPrefix); it.ValidForPrefix(gRowPrefix); it.Next() {
			item := it.Item()
			row := Row{
				Sim: string(bytes.TrimPrefix(item.Key(), gRowPrefix)),
			}
			err := item.Value(func(val []byte) error {
				var err error
				row.Constants, err = decodeRow(val)
				return err
			})
			if err != nil {
				return errors.Wrapf(err, "reading row %q", row.Sim)
			}
			for name := range row.Constants {
				columns.Add(name)
			}
			tbl.Rows = append(tbl.Rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tbl.Columns = make([]string, 0, columns.Size())
	for _, col := range columns.Values() {
		tbl.Columns = append(tbl.Columns, col.(string))
	}
	return tbl, nil
}

// WriteCSV writes a header ("sim" followed by the columns) and one record per row.
// A constant a simulation does not declare is an empty cell.
func (T *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	record := make([]string, 0, 1+len(T.Columns))
	record = append(record, "sim")
	record = append(record, T.Columns...)
	if err := cw.Write(record); err != nil {
		return err
	}

	for _, row := range T.Rows {
		record = append(record[:0], row.Sim)
		for _, col := range T.Columns {
			cell := ""
			if v, ok := row.Constants[col]; ok {
				cell = v.String()
			}
			record = append(record, cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func encodeRow(constants dck.Constants) ([]byte, error) {
	row := &types.Struct{
		Fields: make(map[string]*types.Value, len(constants)),
	}
	for name, v := range constants {
		if i, isInt := v.Int64(); isInt {
			row.Fields[name] = &types.Value{
				Kind: &types.Value_StringValue{StringValue: strconv.FormatInt(i, 10)},
			}
		} else {
			row.Fields[name] = &types.Value{
				Kind: &types.Value_NumberValue{NumberValue: v.Float64()},
			}
		}
	}
	return row.Marshal()
}

func decodeRow(buf []byte) (dck.Constants, error) {
	var row types.Struct
	if err := row.Unmarshal(buf); err != nil {
		return nil, errors.Wrap(dck.ErrBadRow, err.Error())
	}

	constants := make(dck.Constants, len(row.Fields))
	for name, field := range row.Fields {
		switch kind := field.GetKind().(type) {
		case *types.Value_NumberValue:
			constants[name] = dck.Float(kind.NumberValue)
		case *types.Value_StringValue:
			i, err := strconv.ParseInt(kind.StringValue, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(dck.ErrBadRow, "%s: %v", name, err)
			}
			constants[name] = dck.Int(i)
		default:
			return nil, errors.Wrapf(dck.ErrBadRow, "%s: unexpected kind %T", name, kind)
		}
	}
	return constants, nil
}
