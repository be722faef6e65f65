package auth

import (
	"errors"
	"testing"
)

func newTestClients(t *testing.T) *Clients {
	t.Helper()
	hash, err := HashSecret("s3cret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	clients, err := NewClients([]Client{
		{ID: "orchestrator", SecretHash: hash, Role: RoleOperator},
		{ID: "dashboard", SecretHash: hash, Role: RoleViewer},
	})
	if err != nil {
		t.Fatalf("NewClients() error = %v", err)
	}
	return clients
}

func TestClients_Authenticate(t *testing.T) {
	clients := newTestClients(t)

	c, err := clients.Authenticate("orchestrator", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if c.Role != RoleOperator {
		t.Errorf("Role = %q, want %q", c.Role, RoleOperator)
	}

	tests := []struct {
		name, id, secret string
	}{
		{"wrong secret", "orchestrator", "nope"},
		{"unknown client", "ghost", "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := clients.Authenticate(tt.id, tt.secret); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestClients_CorruptHash(t *testing.T) {
	clients, err := NewClients([]Client{{ID: "broken", SecretHash: "plaintext", Role: RoleViewer}})
	if err != nil {
		t.Fatalf("NewClients() error = %v", err)
	}

	_, err = clients.Authenticate("broken", "plaintext")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want a hash format error", err)
	}
}

func TestNewClients_Validation(t *testing.T) {
	if _, err := NewClients([]Client{{ID: "a", Role: Role("root")}}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("invalid role: error = %v, want ErrInvalidRole", err)
	}

	_, err := NewClients([]Client{{ID: "a", Role: RoleViewer}, {ID: "a", Role: RoleOperator}})
	if !errors.Is(err, ErrDuplicateClient) {
		t.Errorf("duplicate id: error = %v, want ErrDuplicateClient", err)
	}
}

func TestClients_Len(t *testing.T) {
	if got := newTestClients(t).Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}
