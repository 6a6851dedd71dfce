package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentGrantsAccess(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		revoked bool
		want    bool
	}{
		{"completed", PaymentStatusCompleted, false, true},
		{"completed but revoked", PaymentStatusCompleted, true, false},
		{"pending", PaymentStatusPending, false, false},
		{"failed", PaymentStatusFailed, false, false},
		{"refunded", PaymentStatusRefunded, false, false},
		{"disputed", PaymentStatusDisputed, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &PaidEnrollment{PaymentStatus: tc.status, AccessRevoked: tc.revoked}
			assert.Equal(t, tc.want, e.GrantsAccess())
		})
	}
}
