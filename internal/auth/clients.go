package auth

import (
	"fmt"
	"sync"
)

// Clients is the set of provisioned API clients, keyed by id.
type Clients struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewClients builds a client set. Ids must be unique and roles valid.
func NewClients(clients []Client) (*Clients, error) {
	set := &Clients{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		if err := set.Add(c); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add provisions one client.
func (s *Clients) Add(c Client) error {
	if !IsValidRole(c.Role) {
		return fmt.Errorf("client %q: %w: %q", c.ID, ErrInvalidRole, c.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[c.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateClient, c.ID)
	}
	s.clients[c.ID] = c
	return nil
}

// Len returns the number of provisioned clients.
func (s *Clients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Authenticate verifies a client's secret. Unknown ids and wrong secrets
// both return ErrInvalidCredentials.
func (s *Clients) Authenticate(id, secret string) (*Client, error) {
	s.mu.RLock()
	c, ok := s.clients[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}

	match, err := VerifySecret(secret, c.SecretHash)
	if err != nil {
		return nil, fmt.Errorf("verifying secret for %q: %w", id, err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return &c, nil
}
