// build_index builds (or reopens) a secondary index over a relation and runs
// one range scan against it.
//
// Usage:
//
//	go run ./cmd/build_index -relation people -records 100000 -type int -low 10 -lowop '>=' -high 20 -highop '<'
//
// Generated records are 22 bytes: id int32 @0 | score float64 @4 | name [10]byte @12.
// The indexed attribute follows -type: int indexes id, double indexes score and
// string indexes name.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"DaemonIndex/conf"
	"DaemonIndex/logger"
	storageengine "DaemonIndex/storage_engine"
	bplus "DaemonIndex/storage_engine/access/indexfile_manager/bplustree"
	"DaemonIndex/types"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const (
	recordSize  = 22
	idOffset    = 0
	scoreOffset = 4
	nameOffset  = 12
)

type options struct {
	configPath string
	relation   string
	source     string
	records    int
	seed       int64
	attrType   string
	rebuild    bool
	low        string
	lowOp      string
	high       string
	highOp     string
	show       int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "ini config file")
	flag.StringVar(&opts.relation, "relation", "people", "relation name")
	flag.StringVar(&opts.source, "source", "heap", "relation storage: heap or lsm")
	flag.IntVar(&opts.records, "records", 0, "generate and append this many records first")
	flag.Int64Var(&opts.seed, "seed", 1, "random seed for generated records")
	flag.StringVar(&opts.attrType, "type", "int", "indexed attribute: int, double or string")
	flag.BoolVar(&opts.rebuild, "rebuild", false, "remove an existing index file before opening")
	flag.StringVar(&opts.low, "low", "", "low bound literal (no scan when empty)")
	flag.StringVar(&opts.lowOp, "lowop", ">=", "low bound operator: > or >=")
	flag.StringVar(&opts.high, "high", "", "high bound literal")
	flag.StringVar(&opts.highOp, "highop", "<=", "high bound operator: < or <=")
	flag.IntVar(&opts.show, "show", 10, "print at most this many matching records")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := conf.NewCfg()
	if opts.configPath != "" {
		if _, err := cfg.Load(opts.configPath); err != nil {
			return err
		}
	}
	if err := logger.InitLogger(logger.LogConfig{LogPath: cfg.LogPath, LogLevel: cfg.LogLevel}); err != nil {
		return err
	}

	attrType, err := types.ParseDatatype(opts.attrType)
	if err != nil {
		return err
	}

	se, err := storageengine.NewStorageEngine(cfg)
	if err != nil {
		return err
	}
	defer se.Close()

	rel, err := se.OpenRelation(opts.relation, storageengine.Source(opts.source))
	if err != nil {
		return err
	}
	if err := generate(opts, rel); err != nil {
		return err
	}

	if opts.rebuild {
		if err := se.IndexManager.DropIndex(bplus.IndexName(opts.relation, attrOffset(attrType))); err != nil {
			return errors.Wrap(err, "remove old index")
		}
	}

	start := time.Now()
	idx, err := se.BuildIndex(rel, attrOffset(attrType), attrType)
	if err != nil {
		return err
	}
	meta := idx.Metadata()
	fmt.Printf("index %s: type=%s height=%d root=%d leaf cap=%d internal cap=%d (opened in %s)\n",
		idx.Name(), meta.AttrType, idx.Height(), meta.RootPageNo, meta.LeafCapacity, meta.InternalCapacity,
		time.Since(start).Round(time.Millisecond))

	if opts.low != "" {
		if err := scan(idx, rel, attrType, opts); err != nil {
			return err
		}
	}

	fmt.Printf("buffer pool: %s\n", se.BufferPool.GetStats())
	return nil
}

var names = []string{"ada", "bea", "carl", "dora", "emil", "fay", "gus", "hana", "ivo", "june", "kai", "lena"}

func generate(opts options, rel storageengine.Relation) error {
	if opts.records <= 0 {
		return nil
	}
	r := rand.New(rand.NewSource(opts.seed))
	start := time.Now()
	for i := 0; i < opts.records; i++ {
		rec := make([]byte, recordSize)
		copy(rec[idOffset:], types.EncodeInt(int32(r.Intn(opts.records))))
		copy(rec[scoreOffset:], types.EncodeDouble(r.Float64()*100))
		copy(rec[nameOffset:], types.EncodeString(fmt.Sprintf("%s%d", names[r.Intn(len(names))], r.Intn(100))))
		if _, err := rel.InsertRecord(rec); err != nil {
			return errors.Wrapf(err, "append record %d", i)
		}
	}
	fmt.Printf("appended %s records (%s) in %s\n", humanize.Comma(int64(opts.records)),
		humanize.IBytes(uint64(opts.records*recordSize)), time.Since(start).Round(time.Millisecond))
	return nil
}

func attrOffset(t types.Datatype) int32 {
	switch t {
	case types.DOUBLE:
		return scoreOffset
	case types.STRING:
		return nameOffset
	default:
		return idOffset
	}
}

func scan(idx *bplus.BTreeIndex, rel storageengine.Relation, attrType types.Datatype, opts options) error {
	low, err := attrType.EncodeKey(opts.low)
	if err != nil {
		return err
	}
	high := low
	if opts.high != "" {
		if high, err = attrType.EncodeKey(opts.high); err != nil {
			return err
		}
	}
	lowOp, err := types.ParseOperator(opts.lowOp)
	if err != nil {
		return err
	}
	highOp, err := types.ParseOperator(opts.highOp)
	if err != nil {
		return err
	}

	if err := idx.StartScan(low, lowOp, high, highOp); err != nil {
		if errors.Is(err, bplus.ErrNoSuchKey) {
			fmt.Println("no matching records")
			return nil
		}
		return err
	}
	defer idx.EndScan()

	off := int(attrOffset(attrType))
	matched := 0
	for {
		rid, err := idx.ScanNext()
		if errors.Is(err, bplus.ErrScanCompleted) {
			break
		}
		if err != nil {
			return err
		}
		if matched < opts.show {
			rec, err := rel.GetRecord(rid)
			if err != nil {
				return err
			}
			key := rec[off : off+attrType.KeySize()]
			fmt.Printf("  %s  key=%s\n", rid, attrType.Format(key))
		}
		matched++
	}
	fmt.Printf("%s %s %s and %s %s: %s records\n", opts.relation, lowOp, attrType.Format(low),
		highOp, attrType.Format(high), humanize.Comma(int64(matched)))
	return nil
}
