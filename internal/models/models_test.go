package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusCompleted, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StockStatusOut, StockStatus(0, 10))
	assert.Equal(t, StockStatusLow, StockStatus(10, 10))
	assert.Equal(t, StockStatusIn, StockStatus(11, 10))
}

func TestAddressSnapshotScan(t *testing.T) {
	var snap AddressSnapshot
	require.NoError(t, snap.Scan([]byte(`{"name":"Ana","city":"Cebu","postal_code":"6000"}`)))
	assert.Equal(t, "Ana", snap.Name)
	assert.Equal(t, "6000", snap.PostalCode)

	assert.Error(t, snap.Scan(42))
}
