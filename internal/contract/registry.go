package contract

import (
	"fmt"
	"sort"
	"sync"
)

// Names of the contracts every Registry starts with.
const (
	BankAccountContract = "bank_account"
	ProfileContract     = "profile"
	LoginContract       = "login"
)

// TransactionTypes is the allowed-value set of a bank transaction's "type".
var TransactionTypes = []string{"deposit", "withdrawal", "transfer"}

// BankAccount is the contract of a bank-style account response.
func BankAccount() Schema {
	return Object(
		String("account_number"),
		Number("balance"),
		String("currency"),
		ArrayOf("transactions", Transaction()),
	)
}

// Transaction is the record contract of a single account transaction.
func Transaction() Schema {
	return Object(
		String("id"),
		Number("amount"),
		Enum("type", TransactionTypes...),
		String("date"),
	)
}

// Profile is the contract of the authenticated user's profile response.
func Profile() Schema {
	return Object(
		String("id"),
		String("username"),
		String("email"),
		String("full_name"),
	)
}

// LoginResponse is the contract of a successful login response.
func LoginResponse() Schema {
	return Object(
		String("token"),
		String("expires_at"),
		String("user_id"),
	)
}

// Registry maps contract names to schemas. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry creates a registry pre-populated with the builtin contracts.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]Schema)}
	r.schemas[BankAccountContract] = BankAccount()
	r.schemas[ProfileContract] = Profile()
	r.schemas[LoginContract] = LoginResponse()
	return r
}

// Register adds or replaces a named schema. Malformed schemas are stored
// as-is; validating with them yields the SchemaError.
func (r *Registry) Register(name string, schema Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = schema
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	if !ok {
		return Schema{}, &SchemaError{Message: fmt.Sprintf("unknown contract %q", name)}
	}
	return s, nil
}

// Names returns registered contract names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
