package bplus

import "DaemonIndex/types"

// lowerBound returns the first index in [0,n) whose key is >= target, or n.
func lowerBound(n int, keyAt func(int) []byte, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(keyAt(mid), target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBound returns the first index in [0,n) whose key is > target, or n.
// Inserting at this index places a new key after every equal key.
func upperBound(n int, keyAt func(int) []byte, target []byte, cmp func(a, b []byte) int) int {
	lo, hi := 0, n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(keyAt(mid), target) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// leafInsertAt shifts slots [i, count) one to the right and writes (k, rid) at i.
// The caller guarantees count < leaf capacity.
func leafInsertAt(v leafView, i int, k []byte, rid types.RecordId) {
	n := v.count()
	copy(v.data[v.keyOff(i+1):v.keyOff(n+1)], v.data[v.keyOff(i):v.keyOff(n)])
	copy(v.data[v.ridOff(i+1):v.ridOff(n+1)], v.data[v.ridOff(i):v.ridOff(n)])
	v.setKey(i, k)
	v.setRid(i, rid)
	v.setCount(n + 1)
}

// internalInsertAt writes separator k at i and right child c at i+1, shifting
// separators [i, count) and children [i+1, count+1) right. child[i] is untouched.
// The caller guarantees count < internal capacity.
func internalInsertAt(v internalView, i int, k []byte, c uint32) {
	n := v.count()
	copy(v.data[v.keyOff(i+1):v.keyOff(n+1)], v.data[v.keyOff(i):v.keyOff(n)])
	copy(v.data[v.childOff(i+2):v.childOff(n+2)], v.data[v.childOff(i+1):v.childOff(n+1)])
	v.setKey(i, k)
	v.setChild(i+1, c)
	v.setCount(n + 1)
}

// leafEntries copies the live entries of a leaf with (k, rid) merged in at
// position i.
func leafEntries(v leafView, i int, k []byte, rid types.RecordId) ([][]byte, []types.RecordId) {
	n := v.count()
	keys := make([][]byte, 0, n+1)
	rids := make([]types.RecordId, 0, n+1)
	for j := 0; j < n; j++ {
		if j == i {
			keys = append(keys, k)
			rids = append(rids, rid)
		}
		keys = append(keys, append([]byte(nil), v.key(j)...))
		rids = append(rids, v.rid(j))
	}
	if i == n {
		keys = append(keys, k)
		rids = append(rids, rid)
	}
	return keys, rids
}

// internalEntries copies the separators and children of an internal node with
// separator k inserted at i and child c at i+1.
func internalEntries(v internalView, i int, k []byte, c uint32) ([][]byte, []uint32) {
	n := v.count()
	keys := make([][]byte, 0, n+1)
	children := make([]uint32, 0, n+2)
	for j := 0; j < n; j++ {
		if j == i {
			keys = append(keys, k)
		}
		keys = append(keys, append([]byte(nil), v.key(j)...))
	}
	if i == n {
		keys = append(keys, k)
	}
	for j := 0; j <= n; j++ {
		children = append(children, v.child(j))
		if j == i {
			children = append(children, c)
		}
	}
	return keys, children
}

// fillLeaf overwrites the entries of a leaf with keys/rids. Slots past the
// new count are zeroed.
func fillLeaf(v leafView, keys [][]byte, rids []types.RecordId) {
	for j := range keys {
		v.setKey(j, keys[j])
		v.setRid(j, rids[j])
	}
	n := len(keys)
	clear(v.data[v.keyOff(n):v.keyOff(v.l.leafCap)])
	clear(v.data[v.ridOff(n):v.ridOff(v.l.leafCap)])
	v.setCount(n)
}

// fillInternal overwrites the separators and children of an internal node.
// Slots past the new count are zeroed.
func fillInternal(v internalView, keys [][]byte, children []uint32) {
	for j := range keys {
		v.setKey(j, keys[j])
	}
	for j := range children {
		v.setChild(j, children[j])
	}
	n := len(keys)
	clear(v.data[v.keyOff(n):v.keyOff(v.l.internalCap)])
	clear(v.data[v.childOff(n+1):v.childOff(v.l.internalCap+1)])
	v.setCount(n)
}
