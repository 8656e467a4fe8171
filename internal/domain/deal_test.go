package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    DealStatus
		to      DealStatus
		allowed bool
	}{
		{"escrow to completed", DealStatusEscrow, DealStatusCompleted, true},
		{"escrow to dispute", DealStatusEscrow, DealStatusDispute, true},
		{"escrow to cancelled", DealStatusEscrow, DealStatusCancelled, false},
		{"completed is terminal", DealStatusCompleted, DealStatusDispute, false},
		{"dispute is terminal", DealStatusDispute, DealStatusCompleted, false},
		{"cancelled is terminal", DealStatusCancelled, DealStatusEscrow, false},
		{"pending has no exits", DealStatusPending, DealStatusEscrow, false},
		{"unknown status", DealStatus("frozen"), DealStatusCompleted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestDealIsParticipant(t *testing.T) {
	deal := &Deal{BuyerID: 1, SellerID: 2}

	assert.True(t, deal.IsParticipant(1))
	assert.True(t, deal.IsParticipant(2))
	assert.False(t, deal.IsParticipant(3))
}

func TestRoleValidAndOpposite(t *testing.T) {
	assert.True(t, RoleBuyer.Valid())
	assert.True(t, RoleSeller.Valid())
	assert.False(t, Role("admin").Valid())

	assert.Equal(t, RoleSeller, RoleBuyer.Opposite())
	assert.Equal(t, RoleBuyer, RoleSeller.Opposite())
}
