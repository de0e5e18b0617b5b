package engine

import "github.com/raftsim/core/pkg/raft"

// FileAware is implemented by anything that wants file-broker callbacks.
// raft.Node implements it as a no-op pair: election logic never touches the
// file broker today, but the interface exists so future work can reorder and
// delay these calls without changing Node's shape.
type FileAware interface {
	LoadedFile(name string, data []byte)
	SavedFile(name string)
}

// FileBroker is the stub per-node key→bytes store. Grounded on the
// apply-store bookkeeping in pkg/kv/store.go, repurposed here from a
// replicated state-machine store to a flat, synchronous, per-node file
// table: no replication, no dedup, a plain map.
type FileBroker struct {
	files map[raft.NodeID]map[string][]byte
}

func NewFileBroker(clusterSize int) *FileBroker {
	f := &FileBroker{files: make(map[raft.NodeID]map[string][]byte)}
	for i := 0; i < clusterSize; i++ {
		f.files[raft.NodeID(i)] = make(map[string][]byte)
	}
	return f
}

// ReadFile looks up name in node's table and, if present, invokes its
// LoadedFile callback. In this core the lookup is ideal and synchronous.
func (f *FileBroker) ReadFile(node raft.NodeID, name string, cb FileAware) {
	data, ok := f.files[node][name]
	if ok && cb != nil {
		cb.LoadedFile(name, data)
	}
}

// WriteFile stores data under name in node's table and invokes its SavedFile
// callback.
func (f *FileBroker) WriteFile(node raft.NodeID, name string, data []byte, cb FileAware) {
	f.files[node][name] = data
	if cb != nil {
		cb.SavedFile(name)
	}
}
