package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEquipment(total int) *Equipment {
	return &Equipment{Name: "Ball", Category: CategoryFootball, Quantity: NewQuantity(total), IsActive: true}
}

func TestEquipment_BorrowReturnKeepsInvariant(t *testing.T) {
	e := newEquipment(10)
	now := time.Now()

	require.NoError(t, e.Borrow(3, now))
	assert.True(t, e.Quantity.Consistent())
	assert.Equal(t, 7, e.Quantity.Available)
	assert.Equal(t, 3, e.Quantity.Borrowed)
	assert.Equal(t, 3, e.Usage.TotalBorrows)
	require.NotNil(t, e.Usage.LastBorrowed)

	require.NoError(t, e.Return(2, false))
	require.NoError(t, e.Return(1, true))
	assert.True(t, e.Quantity.Consistent())
	assert.Equal(t, Quantity{Total: 10, Available: 9, Borrowed: 0, Damaged: 1}, e.Quantity)
}

func TestEquipment_BorrowUnavailable(t *testing.T) {
	e := newEquipment(2)

	assert.ErrorIs(t, e.Borrow(3, time.Now()), ErrNotAvailable)
	assert.Equal(t, 2, e.Quantity.Available)

	e.IsActive = false
	assert.False(t, e.IsAvailable(1))
	assert.ErrorIs(t, e.Borrow(1, time.Now()), ErrNotAvailable)
}

func TestEquipment_ReturnMoreThanBorrowed(t *testing.T) {
	e := newEquipment(5)
	require.NoError(t, e.Borrow(1, time.Now()))

	assert.ErrorIs(t, e.Return(2, false), ErrReturnExceeds)
	assert.Equal(t, 1, e.Quantity.Borrowed)
}

func TestEquipment_DerivedStatus(t *testing.T) {
	e := newEquipment(10)
	assert.Equal(t, AvailabilityAvailable, e.AvailabilityStatus())

	e.Quantity = Quantity{Total: 10, Available: 2, Borrowed: 8}
	assert.Equal(t, AvailabilityLowStock, e.AvailabilityStatus())

	e.Quantity = Quantity{Total: 10, Available: 0, Borrowed: 7, Damaged: 3}
	assert.Equal(t, AvailabilityOutOfStock, e.AvailabilityStatus())
	assert.Equal(t, 70, e.ConditionPercentage())
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryTableTennis.Valid())
	assert.False(t, Category("Chess").Valid())
}
