package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/99minutos/storefront/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID      map[string]*domain.User
	seq       int
	createErr error // if set, Create returns this error
	findErr   error // if set, FindByEmail returns this error
	creates   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("user-%d", r.seq)
	r.byID[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

type stubProductRepo struct {
	byID      map[string]*domain.Product
	users     *stubUserRepo
	seq       int
	updates   int
	deletes   int
	updateErr error
}

func newStubProductRepo(users *stubUserRepo) *stubProductRepo {
	return &stubProductRepo{byID: make(map[string]*domain.Product), users: users}
}

func (r *stubProductRepo) withOwner(p *domain.Product) *domain.Product {
	c := *p
	if u, ok := r.users.byID[p.UserID]; ok {
		c.Owner = &domain.ProductOwner{ID: u.ID, Email: u.Email}
	}
	return &c
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.seq++
	c := *p
	c.ID = fmt.Sprintf("prod-%d", r.seq)
	r.byID[c.ID] = &c
	return r.withOwner(&c), nil
}

func (r *stubProductRepo) List(_ context.Context) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(r.byID))
	for i := 1; i <= r.seq; i++ {
		if p, ok := r.byID[fmt.Sprintf("prod-%d", i)]; ok {
			out = append(out, r.withOwner(p))
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return r.withOwner(p), nil
}

func (r *stubProductRepo) Update(_ context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	r.updates++
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	updated := patch.Apply(*p)
	r.byID[id] = &updated
	return r.withOwner(&updated), nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) error {
	r.deletes++
	if _, ok := r.byID[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Security stubs
// ---------------------------------------------------------------------------

// stubHasher salts with a counter so equal passwords produce different digests.
type stubHasher struct {
	mu       sync.Mutex
	n        int
	verifies int
}

func (h *stubHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.n++
	return fmt.Sprintf("h$%d$%s", h.n, plain), nil
}

func (h *stubHasher) Verify(plain, digest string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	parts := strings.SplitN(digest, "$", 3)
	if len(parts) != 3 || parts[0] != "h" {
		return false, domain.ErrMalformedHash
	}
	return parts[2] == plain, nil
}

// stubTokens encodes claims in plain text; good enough to check what was issued.
type stubTokens struct {
	mu sync.Mutex
	n  int
}

func (s *stubTokens) IssueAccessToken(userID string, role domain.Role) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("access|%s|%s|%d", userID, role, s.n), nil
}

func (s *stubTokens) IssueRefreshToken(userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("refresh|%s|jti-%d", userID, s.n), nil
}

func (s *stubTokens) VerifyAccessToken(token string) (*domain.AccessClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 || parts[0] != "access" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.AccessClaims{UserID: parts[1], Role: domain.Role(parts[2])}, nil
}

func (s *stubTokens) VerifyRefreshToken(token string) (*domain.RefreshClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "refresh" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.RefreshClaims{UserID: parts[1], TokenID: parts[2], ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type stubRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
	// checked, when set, holds every IsRevoked caller until all have checked
	checked *sync.WaitGroup
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Time)}
}

func (s *stubRevocations) Revoke(_ context.Context, tokenID string, until time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.revoked[tokenID]; ok {
		return true, nil
	}
	s.revoked[tokenID] = until
	return false, nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	err := s.err
	_, ok := s.revoked[tokenID]
	s.mu.Unlock()
	if s.checked != nil {
		s.checked.Done()
		s.checked.Wait()
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ---------------------------------------------------------------------------
// Event publisher stub
// ---------------------------------------------------------------------------

type recordingPublisher struct {
	events []domain.ProductEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ProductEvent) {
	p.events = append(p.events, ev)
}

var errStoreDown = errors.New("store unavailable")
