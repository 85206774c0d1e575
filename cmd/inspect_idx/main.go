// Inspect a secondary index file: metadata, per-level fill and optionally
// every node.
// Usage: go run ./cmd/inspect_idx [-nodes] [-keys 8] <path-to-index>
// Example: go run ./cmd/inspect_idx data/indexes/people.0
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	bplus "DaemonIndex/storage_engine/access/indexfile_manager/bplustree"
	"DaemonIndex/storage_engine/bufferpool"
	diskmanager "DaemonIndex/storage_engine/disk_manager"
	"DaemonIndex/types"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

func main() {
	showNodes := flag.Bool("nodes", false, "print every node")
	maxKeys := flag.Int("keys", 8, "keys printed per node with -nodes")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <index file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := inspect(os.Stdout, flag.Arg(0), *showNodes, *maxKeys); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type levelStats struct {
	nodes   int
	entries int
}

func inspect(w io.Writer, path string, showNodes bool, maxKeys int) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}

	dm, err := diskmanager.NewDiskManager(0)
	if err != nil {
		return err
	}
	defer dm.CloseAll()
	bp := bufferpool.NewBufferPool(16, dm)

	meta, err := bplus.ReadMetadata(dm, path)
	if err != nil {
		return err
	}
	if want := bplus.IndexName(meta.RelationName, meta.AttrByteOffset); filepath.Base(path) != want {
		return errors.Errorf("%s holds index %s; rename the file to inspect it", path, want)
	}

	idx, _, err := bplus.OpenBTreeIndex(bplus.Config{
		RelationName:   meta.RelationName,
		AttrByteOffset: meta.AttrByteOffset,
		AttrType:       meta.AttrType,
		Dir:            filepath.Dir(path),
	}, nil, bp, dm)
	if err != nil {
		return err
	}
	defer idx.Close()

	fmt.Fprintf(w, "file:           %s (%s, %s pages)\n", path, humanize.IBytes(uint64(st.Size())),
		humanize.Comma(st.Size()/types.PageSize))
	fmt.Fprintf(w, "relation:       %s, attribute at byte %d, type %s (%d-byte keys)\n",
		meta.RelationName, meta.AttrByteOffset, meta.AttrType, meta.KeyWidth)
	fmt.Fprintf(w, "capacity:       %d entries per leaf, %d keys per internal node\n",
		meta.LeafCapacity, meta.InternalCapacity)
	fmt.Fprintf(w, "root:           page %d, height %d\n", meta.RootPageNo, meta.RootLevel+1)

	levels := make([]levelStats, meta.RootLevel+1)
	err = idx.Walk(func(n bplus.NodeInfo) error {
		levels[n.Level].nodes++
		levels[n.Level].entries += len(n.Keys)
		if showNodes {
			printNode(w, meta, n, maxKeys)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for level := len(levels) - 1; level >= 0; level-- {
		ls := levels[level]
		capacity := meta.InternalCapacity
		kind := "internal"
		if level == 0 {
			capacity = meta.LeafCapacity
			kind = "leaf"
		}
		fill := 0.0
		if ls.nodes > 0 {
			fill = 100 * float64(ls.entries) / float64(ls.nodes*capacity)
		}
		fmt.Fprintf(w, "level %d (%s): %s nodes, %s keys, %.1f%% full\n",
			level, kind, humanize.Comma(int64(ls.nodes)), humanize.Comma(int64(ls.entries)), fill)
	}
	return nil
}

func printNode(w io.Writer, meta bplus.Metadata, n bplus.NodeInfo, maxKeys int) {
	keys := make([]string, 0, maxKeys)
	for i, k := range n.Keys {
		if i == maxKeys {
			keys = append(keys, fmt.Sprintf("... +%d", len(n.Keys)-maxKeys))
			break
		}
		keys = append(keys, meta.AttrType.Format(k))
	}

	indent := strings.Repeat("  ", int(meta.RootLevel-n.Level))
	if n.IsLeaf() {
		fmt.Fprintf(w, "%sleaf %d: [%s] next=%d\n", indent, n.PageNo, strings.Join(keys, " "), n.RightSibling)
		return
	}
	fmt.Fprintf(w, "%snode %d level %d: [%s] children=%v\n", indent, n.PageNo, n.Level, strings.Join(keys, " "), n.Children)
}
