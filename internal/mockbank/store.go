package mockbank

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionTTL is how long a login token stays valid.
const SessionTTL = time.Hour

// SeedAccountID is the account created for the seeded user.
const SeedAccountID = "AC1"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAccountNotFound    = errors.New("account not found")
)

// User is a bank customer.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`

	password string
}

// Session is an issued login token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// Transaction is a single account movement.
type Transaction struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
	Date   string  `json:"date"`
}

// Account is the payload served by GET /api/accounts/:id.
type Account struct {
	AccountNumber string        `json:"account_number"`
	Balance       float64       `json:"balance"`
	Currency      string        `json:"currency"`
	Transactions  []Transaction `json:"transactions"`

	ownerID string
}

func (a *Account) clone() Account {
	out := *a
	out.Transactions = make([]Transaction, len(a.Transactions))
	copy(out.Transactions, a.Transactions)
	return out
}

// Store is the in-memory state of the mock bank.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*User // by username
	sessions  map[string]Session
	accounts  map[string]*Account
	overrides map[string]any
	now       func() time.Time
}

// NewStore creates a store with one user and the seeded account AC1.
func NewStore(username, password string) *Store {
	s := &Store{
		users:     make(map[string]*User),
		sessions:  make(map[string]Session),
		accounts:  make(map[string]*Account),
		overrides: make(map[string]any),
		now:       time.Now,
	}

	u := &User{
		ID:       "u-1001",
		Username: username,
		Email:    username + "@mockbank.test",
		FullName: "Demo Customer",
		password: password,
	}
	s.users[username] = u
	s.accounts[SeedAccountID] = &Account{
		AccountNumber: SeedAccountID,
		Balance:       1250.50,
		Currency:      "USD",
		Transactions: []Transaction{
			{ID: "t-0001", Amount: 1500, Type: "deposit", Date: "2024-01-02"},
			{ID: "t-0002", Amount: 249.50, Type: "withdrawal", Date: "2024-01-15"},
		},
		ownerID: u.ID,
	}
	return s
}

// Login checks credentials and issues a session token.
func (s *Store) Login(username, password string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok || u.password != password {
		return Session{}, ErrInvalidCredentials
	}
	sess := Session{
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(SessionTTL).UTC().Truncate(time.Second),
		UserID:    u.ID,
	}
	s.sessions[sess.Token] = sess
	return sess, nil
}

// Authenticate resolves a token to its user.
func (s *Store) Authenticate(token string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok || !s.now().Before(sess.ExpiresAt) {
		return User{}, ErrInvalidToken
	}
	for _, u := range s.users {
		if u.ID == sess.UserID {
			return *u, nil
		}
	}
	return User{}, ErrInvalidToken
}

// Account returns the account if it belongs to userID. An override set with
// Override is returned verbatim instead.
func (s *Store) Account(userID, id string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok || a.ownerID != userID {
		return nil, ErrAccountNotFound
	}
	if raw, ok := s.overrides[id]; ok {
		return raw, nil
	}
	return a.clone(), nil
}

// AddTransaction appends tx to the account and updates the balance.
func (s *Store) AddTransaction(userID, id string, tx Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.ownerID != userID {
		return Transaction{}, ErrAccountNotFound
	}
	if tx.ID == "" {
		tx.ID = "t-" + uuid.NewString()
	}
	switch tx.Type {
	case "deposit":
		a.Balance += tx.Amount
	default:
		a.Balance -= tx.Amount
	}
	a.Transactions = append(a.Transactions, tx)
	return tx, nil
}

// Override replaces the served payload of an existing account, letting tests
// simulate a backend that breaks its contract. A nil payload clears it.
func (s *Store) Override(id string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if payload == nil {
		delete(s.overrides, id)
		return
	}
	s.overrides[id] = payload
}

// AccountIDs lists the known account IDs in sorted order.
func (s *Store) AccountIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
