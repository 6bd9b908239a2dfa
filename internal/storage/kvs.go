package storage

import "context"

// Well-known keys for the persisted ledger state. Per-user collections
// append the owning user's id to the prefix.
const (
	KeyUsers     = "wallet.users"
	KeySession   = "wallet.session"
	KeyTxsPrefix = "wallet.txs."
)

// KVS is a durable store of JSON-serializable values by string key.
// Get decodes the stored value into out and reports whether the key
// existed. Implementations must not retry on failure; errors surface to
// the caller unchanged.
type KVS interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, val any) error
}
