// Package chaintest provides an in-memory ledger that implements chain.Client
// for tests and local runs without a node.
package chaintest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"kycgate/internal/chain"
	"kycgate/internal/chain/signer"
	"kycgate/pkg/platform/sentinel"
)

// Object types the fake creates, keyed by Move function.
var createdTypes = map[string]string{
	"create_schema": "::vc_manager::SchemaObject",
	"create_did":    "::did_manager::DIDObject",
	"issue_vc":      "::vc_manager::VCObject",
}

type builtTx struct {
	Sender string         `json:"sender"`
	Call   chain.MoveCall `json:"call"`
}

// Submission is a transaction the ledger executed.
type Submission struct {
	Sender string
	Call   chain.MoveCall
	Digest string
}

// Ledger is a thread-safe fake full node.
type Ledger struct {
	mu          sync.Mutex
	objects     map[chain.ObjectID]*chain.ObjectSnapshot
	submissions []Submission
	failNext    map[string]error
	omitCreated map[string]bool
	readErr     error
}

func NewLedger() *Ledger {
	return &Ledger{
		objects:     make(map[chain.ObjectID]*chain.ObjectSnapshot),
		failNext:    make(map[string]error),
		omitCreated: make(map[string]bool),
	}
}

var _ chain.Client = (*Ledger)(nil)

// Put seeds an existing object.
func (l *Ledger) Put(id chain.ObjectID, objectType string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.objects[id] = &chain.ObjectSnapshot{ObjectID: id, Type: objectType, Version: "1"}
}

// Delete removes an object so later reads report it missing.
func (l *Ledger) Delete(id chain.ObjectID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.objects, id)
}

// FailNext makes the next execution of function return err.
func (l *Ledger) FailNext(function string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext[function] = err
}

// OmitCreated makes function succeed without creating its object, as an
// incompatible contract version would.
func (l *Ledger) OmitCreated(function string, omit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.omitCreated[function] = omit
}

// FailReads makes every GetObject return err until cleared with nil.
func (l *Ledger) FailReads(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErr = err
}

// Submissions returns executed transactions in order.
func (l *Ledger) Submissions() []Submission {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Submission(nil), l.submissions...)
}

// SubmissionsOf counts executed transactions for function.
func (l *Ledger) SubmissionsOf(function string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.submissions {
		if s.Call.Function == function {
			n++
		}
	}
	return n
}

func (l *Ledger) GetObject(_ context.Context, id chain.ObjectID) (*chain.ObjectSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return nil, l.readErr
	}
	obj, ok := l.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *obj
	return &cp, nil
}

func (l *Ledger) BuildMoveCall(_ context.Context, sender string, call chain.MoveCall, _ uint64) ([]byte, error) {
	if _, ok := createdTypes[call.Function]; !ok {
		return nil, fmt.Errorf("function %s not found in module %s", call.Function, call.Module)
	}
	return json.Marshal(builtTx{Sender: sender, Call: call})
}

func (l *Ledger) ExecuteTransaction(_ context.Context, txBytes []byte, signatures []string) (*chain.TransactionResult, error) {
	if len(signatures) != 1 {
		return nil, fmt.Errorf("expected one signature, got %d", len(signatures))
	}
	pub, ok := signer.Verify(signatures[0], txBytes)
	if !ok {
		return nil, fmt.Errorf("invalid signature")
	}
	var tx builtTx
	if err := json.Unmarshal(txBytes, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if signer.AddressOf(pub) != tx.Sender {
		return nil, fmt.Errorf("signature does not match sender %s", tx.Sender)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.failNext[tx.Call.Function]; ok {
		delete(l.failNext, tx.Call.Function)
		return nil, err
	}

	digest := randomHex(16)
	l.submissions = append(l.submissions, Submission{Sender: tx.Sender, Call: tx.Call, Digest: digest})

	result := &chain.TransactionResult{Digest: digest}
	if l.omitCreated[tx.Call.Function] {
		return result, nil
	}
	id := chain.ObjectID("0x" + randomHex(32))
	objectType := tx.Call.Package + createdTypes[tx.Call.Function]
	l.objects[id] = &chain.ObjectSnapshot{ObjectID: id, Type: objectType, Version: "1"}
	result.Created = append(result.Created, chain.CreatedObject{ObjectID: id, ObjectType: objectType})
	return result, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Gateway returns a gateway backed by the ledger.
func (l *Ledger) Gateway(opts ...chain.Option) *chain.Gateway {
	return chain.NewGateway(l, 10_000_000, opts...)
}

// NewSigner returns a deterministic issuer key for tests.
func NewSigner() *signer.Ed25519 {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	s, err := signer.FromSeed(seed)
	if err != nil {
		panic(err)
	}
	return s
}
