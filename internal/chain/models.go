package chain

import (
	"encoding/json"
	"strings"
)

// ObjectID is a ledger object identifier (0x-prefixed hex).
type ObjectID string

func (id ObjectID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ObjectID) IsZero() bool { return id == "" }

// ClockObjectID is the shared system clock object.
const ClockObjectID ObjectID = "0x6"

// ObjectSnapshot is the subset of an on-chain object the workflows inspect.
type ObjectSnapshot struct {
	ObjectID ObjectID
	Version  string
	Digest   string
	Type     string
	Fields   json.RawMessage
}

// CreatedObject is one object created by an executed transaction.
type CreatedObject struct {
	ObjectID   ObjectID
	ObjectType string
}

// TransactionResult is the outcome of a successfully executed transaction.
type TransactionResult struct {
	Digest  string
	Created []CreatedObject
}

// FindCreated returns the first created object whose type ends with suffix,
// e.g. "::vc_manager::VCObject". Package addresses differ between deployments
// so matching is done on the module qualified struct name only.
func (r *TransactionResult) FindCreated(suffix string) (CreatedObject, bool) {
	if r == nil {
		return CreatedObject{}, false
	}
	for _, obj := range r.Created {
		if hasTypeSuffix(obj.ObjectType, suffix) {
			return obj, true
		}
	}
	return CreatedObject{}, false
}

// hasTypeSuffix matches generic instantiations too ("...::VCObject<T>").
func hasTypeSuffix(objectType, suffix string) bool {
	if i := strings.IndexByte(objectType, '<'); i >= 0 {
		objectType = objectType[:i]
	}
	return strings.HasSuffix(objectType, suffix)
}

// MoveCall describes a single entry function invocation.
type MoveCall struct {
	Package  string
	Module   string
	Function string
	TypeArgs []string
	// Args are JSON encodable pure values or object ids, in declaration order.
	Args []any
}

// Target renders "<package>::<module>::<function>".
func (c MoveCall) Target() string {
	return c.Package + "::" + c.Module + "::" + c.Function
}

// PureBytes encodes b as a vector<u8> argument. encoding/json would otherwise
// render a []byte as a base64 string.
func PureBytes(b []byte) []uint16 {
	out := make([]uint16, len(b))
	for i, v := range b {
		out[i] = uint16(v)
	}
	return out
}
