package mockapi

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/me/authkit/pkg/model"
)

// DefaultHashParams are the OWASP minimum parameters for Argon2id.
var DefaultHashParams = &argon2id.Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type account struct {
	id        int64
	name      string
	email     string
	hash      string
	roles     []string
	createdAt time.Time
}

func (a *account) isAdmin() bool {
	return slices.Contains(a.roles, string(model.RoleAdmin))
}

func (a *account) customer() model.Customer {
	return model.Customer{
		ID:        a.id,
		Name:      a.name,
		Email:     a.email,
		Roles:     append([]string(nil), a.roles...),
		CreatedAt: a.createdAt,
	}
}

// grant ties an issued token to an account until it expires.
type grant struct {
	accountID int64
	expiresAt time.Time
}

// directory is the in-memory account and token registry.
type directory struct {
	params *argon2id.Params

	mu       sync.Mutex
	nextID   int64
	byEmail  map[string]*account
	byID     map[int64]*account
	sessions map[string]grant
	resets   map[string]grant
}

func newDirectory(params *argon2id.Params) *directory {
	return &directory{
		params:   params,
		byEmail:  make(map[string]*account),
		byID:     make(map[int64]*account),
		sessions: make(map[string]grant),
		resets:   make(map[string]grant),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *directory) create(name, email, password string, roles []string, now time.Time) (*account, error) {
	email = normalizeEmail(email)

	d.mu.Lock()
	_, exists := d.byEmail[email]
	d.mu.Unlock()
	if exists {
		return nil, errEmailExists
	}

	hash, err := argon2id.CreateHash(password, d.params)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	// Re-check: hashing ran unlocked.
	if _, exists := d.byEmail[email]; exists {
		return nil, errEmailExists
	}
	d.nextID++
	acct := &account{
		id:        d.nextID,
		name:      name,
		email:     email,
		hash:      hash,
		roles:     roles,
		createdAt: now.UTC(),
	}
	d.byEmail[email] = acct
	d.byID[acct.id] = acct
	return acct, nil
}

func (d *directory) lookup(email string) (*account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.byEmail[normalizeEmail(email)]
	return acct, ok
}

// verify checks email and password.
func (d *directory) verify(email, password string) (*account, error) {
	d.mu.Lock()
	acct, ok := d.byEmail[normalizeEmail(email)]
	var hash string
	if ok {
		hash = acct.hash
	}
	d.mu.Unlock()
	if !ok {
		return nil, errEmailNotFound
	}
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return nil, errInvalidPassword
	}
	return acct, nil
}

// issue creates a bearer token for acct valid for ttl. Expiry is truncated
// to whole seconds so it survives a round trip through JSON unchanged.
func (d *directory) issue(acct *account, now time.Time, ttl time.Duration) (string, time.Time) {
	token := uuid.NewString()
	expires := now.Add(ttl).UTC().Truncate(time.Second)
	d.mu.Lock()
	d.sessions[token] = grant{accountID: acct.id, expiresAt: expires}
	d.mu.Unlock()
	return token, expires
}

func (d *directory) accountForToken(token string, now time.Time) (*account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.sessions[token]
	if !ok {
		return nil, errUnauthorized
	}
	if !now.Before(g.expiresAt) {
		delete(d.sessions, token)
		return nil, errUnauthorized
	}
	acct, ok := d.byID[g.accountID]
	if !ok {
		return nil, errUnauthorized
	}
	return acct, nil
}

func (d *directory) issueReset(email string, now time.Time, ttl time.Duration) (string, error) {
	acct, ok := d.lookup(email)
	if !ok {
		return "", errEmailNotExists
	}
	token := uuid.NewString()
	d.mu.Lock()
	d.resets[token] = grant{accountID: acct.id, expiresAt: now.Add(ttl)}
	d.mu.Unlock()
	return token, nil
}

func (d *directory) checkReset(token string, now time.Time) (*account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.resets[token]
	if !ok || !now.Before(g.expiresAt) {
		return nil, errInvalidToken
	}
	acct, ok := d.byID[g.accountID]
	if !ok {
		return nil, errInvalidToken
	}
	return acct, nil
}

// resetPassword consumes the reset token, replaces the password hash and
// revokes every bearer token of the account.
func (d *directory) resetPassword(token, password string, now time.Time) (*account, error) {
	if _, err := d.checkReset(token, now); err != nil {
		return nil, err
	}
	hash, err := argon2id.CreateHash(password, d.params)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.resets[token]
	if !ok {
		return nil, errInvalidToken
	}
	delete(d.resets, token)
	acct := d.byID[g.accountID]
	acct.hash = hash
	for tok, sg := range d.sessions {
		if sg.accountID == acct.id {
			delete(d.sessions, tok)
		}
	}
	return acct, nil
}

// customers lists every non-admin account ordered by ID.
func (d *directory) customers() []model.Customer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Customer, 0, len(d.byID))
	for _, acct := range d.byID {
		if acct.isAdmin() {
			continue
		}
		out = append(out, acct.customer())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
