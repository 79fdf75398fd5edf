package middleware

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSatisfiesRole(t *testing.T) {
	cases := []struct {
		role, required string
		want           bool
	}{
		{"student", AuthRoleAny, true},
		{"", AuthRoleAny, true},
		{"teacher", AuthRoleTeacher, true},
		{"admin", AuthRoleTeacher, true},
		{"student", AuthRoleTeacher, false},
		{"teacher", AuthRoleAdmin, false},
		{"student", AuthRoleStudent, true},
		{"admin", AuthRoleStudent, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, satisfiesRole(tc.role, tc.required), "%s on %s route", tc.role, tc.required)
	}
}
