package domain

// Operation names as exposed to callers.
const (
	OperationStore    = "store"
	OperationRetrieve = "retrieve"
	OperationList     = "list"
	OperationDelete   = "delete"
)

// Operation is one of StoreOp, RetrieveOp, ListOp, or DeleteOp. The set is
// closed: arguments are shaped into one of these records at the dispatch
// boundary before reaching the Store.
type Operation interface {
	Name() string
	isOperation()
}

// StoreOp writes value under key. TTLSeconds > 0 sets an expiry.
type StoreOp struct {
	Key        string
	Value      string
	Namespace  *string
	TTLSeconds float64
}

// RetrieveOp reads the live value under key.
type RetrieveOp struct {
	Key       string
	Namespace *string
}

// ListOp enumerates storage keys, optionally restricted to a namespace.
type ListOp struct {
	Namespace       *string
	IncludeMetadata bool
}

// DeleteOp removes key.
type DeleteOp struct {
	Key       string
	Namespace *string
}

func (StoreOp) Name() string    { return OperationStore }
func (RetrieveOp) Name() string { return OperationRetrieve }
func (ListOp) Name() string     { return OperationList }
func (DeleteOp) Name() string   { return OperationDelete }

func (StoreOp) isOperation()    {}
func (RetrieveOp) isOperation() {}
func (ListOp) isOperation()     {}
func (DeleteOp) isOperation()   {}

// Result is the outcome of an Operation.
type Result interface {
	isResult()
}

// StoreResult acknowledges a write of the caller's (non-namespaced) key.
type StoreResult struct {
	Key string
}

// RetrieveResult carries the stored value only.
type RetrieveResult struct {
	Value string
}

// ListEntry describes one listed record.
type ListEntry struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
	Expiry    *int64 `json:"expiry,omitempty"`
}

// ListResult holds storage keys in mapping order. With metadata, Entries is
// filled instead of Keys.
type ListResult struct {
	Keys         []string
	Entries      []ListEntry
	WithMetadata bool
}

// DeleteResult acknowledges removal of the caller's key.
type DeleteResult struct {
	Key string
}

func (StoreResult) isResult()    {}
func (RetrieveResult) isResult() {}
func (ListResult) isResult()     {}
func (DeleteResult) isResult()   {}
