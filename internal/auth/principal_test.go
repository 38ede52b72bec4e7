package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{in: "customer", want: RoleCustomer, ok: true},
		{in: " Staff ", want: RoleStaff, ok: true},
		{in: "ADMIN", want: RoleAdmin, ok: true},
		{in: "", ok: false},
		{in: "root", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrincipal_Roles(t *testing.T) {
	assert.False(t, Principal{Role: RoleCustomer}.IsStaff())
	assert.True(t, Principal{Role: RoleStaff}.IsStaff())
	assert.False(t, Principal{Role: RoleStaff}.IsAdmin())
	assert.True(t, Principal{Role: RoleAdmin}.IsStaff())
	assert.True(t, Principal{Role: RoleAdmin}.IsAdmin())
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UserID: 12, Role: RoleStaff})
	p, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(12), p.UserID)
	assert.Equal(t, RoleStaff, p.Role)
}
