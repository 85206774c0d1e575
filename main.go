package main

import (
	"DaemonIndex/conf"
	"DaemonIndex/logger"
	storageengine "DaemonIndex/storage_engine"
	bplus "DaemonIndex/storage_engine/access/indexfile_manager/bplustree"
	"DaemonIndex/types"
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const help = `commands:
  create <relation> <offset> <int|double|string>   open or create an empty index
  insert <index> <key> <page> <slot>                add one entry
  scan <index> <lowop> <low> <highop> <high>        range scan, e.g. scan emp.4 >= 10 < 20
  indexes                                           list open indexes
  stats                                             buffer pool statistics
  exit`

func main() {
	configPath := flag.String("config", "", "ini config file")
	flag.Parse()

	cfg := conf.NewCfg()
	if *configPath != "" {
		if _, err := cfg.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if err := logger.InitLogger(logger.LogConfig{LogPath: cfg.LogPath, LogLevel: cfg.LogLevel}); err != nil {
		log.Fatal(err)
	}

	se, err := storageengine.NewStorageEngine(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer se.Close()

	if names, err := se.IndexManager.OpenRegistered(); err != nil {
		log.Fatal(err)
	} else if len(names) > 0 {
		fmt.Printf("opened %s\n", strings.Join(names, ", "))
	}

	scanner := bufio.NewScanner(os.Stdin)
	// REPL
	for {
		fmt.Print("idx> ")

		if !scanner.Scan() { // Ctrl+D pressed
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if line == "" {
			continue
		}

		if err := execute(se, line, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func execute(se *storageengine.StorageEngine, line string, w io.Writer) error {
	args := strings.Fields(line)
	switch strings.ToLower(args[0]) {
	case "help":
		fmt.Fprintln(w, help)
		return nil

	case "create":
		if len(args) != 4 {
			return errors.New("usage: create <relation> <offset> <type>")
		}
		off, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return errors.Wrap(err, "offset")
		}
		attrType, err := types.ParseDatatype(args[3])
		if err != nil {
			return err
		}
		idx, err := se.IndexManager.GetOrCreateIndex(bplus.Config{
			RelationName:   args[1],
			AttrByteOffset: int32(off),
			AttrType:       attrType,
		}, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s ready, height %d\n", idx.Name(), idx.Height())
		return nil

	case "insert":
		if len(args) != 5 {
			return errors.New("usage: insert <index> <key> <page> <slot>")
		}
		idx, err := lookup(se, args[1])
		if err != nil {
			return err
		}
		key, err := idx.AttrType().EncodeKey(args[2])
		if err != nil {
			return err
		}
		pageNo, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return errors.Wrap(err, "page")
		}
		slot, err := strconv.ParseUint(args[4], 10, 16)
		if err != nil {
			return errors.Wrap(err, "slot")
		}
		return idx.InsertEntry(key, types.RecordId{PageNumber: uint32(pageNo), SlotNumber: uint16(slot)})

	case "scan":
		if len(args) != 6 {
			return errors.New("usage: scan <index> <lowop> <low> <highop> <high>")
		}
		idx, err := lookup(se, args[1])
		if err != nil {
			return err
		}
		return scan(idx, args[2:], w)

	case "indexes":
		for _, name := range se.IndexManager.IndexNames() {
			idx, _ := se.IndexManager.GetIndex(name)
			fmt.Fprintf(w, "%s  %s  height %d\n", name, idx.AttrType(), idx.Height())
		}
		return nil

	case "stats":
		fmt.Fprintln(w, se.BufferPool.GetStats())
		return nil
	}
	return errors.Errorf("unknown command %q, try help", args[0])
}

func lookup(se *storageengine.StorageEngine, name string) (*bplus.BTreeIndex, error) {
	idx, ok := se.IndexManager.GetIndex(name)
	if !ok {
		return nil, errors.Errorf("index %s is not open", name)
	}
	return idx, nil
}

func scan(idx *bplus.BTreeIndex, args []string, w io.Writer) error {
	lowOp, err := types.ParseOperator(args[0])
	if err != nil {
		return err
	}
	low, err := idx.AttrType().EncodeKey(args[1])
	if err != nil {
		return err
	}
	highOp, err := types.ParseOperator(args[2])
	if err != nil {
		return err
	}
	high, err := idx.AttrType().EncodeKey(args[3])
	if err != nil {
		return err
	}

	if err := idx.StartScan(low, lowOp, high, highOp); err != nil {
		if errors.Is(err, bplus.ErrNoSuchKey) {
			fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		return err
	}
	defer idx.EndScan()

	n := 0
	for {
		rid, err := idx.ScanNext()
		if errors.Is(err, bplus.ErrScanCompleted) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(w, rid)
		n++
	}
	fmt.Fprintf(w, "(%d rows)\n", n)
	return nil
}
