package service

import (
	"context"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	order := placeTestOrder(t, f, 1)
	svc := NewRefundService(f.store, f.store, f.events)
	ctx := context.Background()

	r, err := svc.Create(ctx, RefundInput{OrderID: order.ID, Amount: dec("100"), Reason: "Damaged on arrival"})
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, r.UserID)
	assert.Equal(t, models.RefundStatusPending, r.Status)
	require.Len(t, f.events.refunds, 1)
	assert.Equal(t, order.OrderNumber, f.events.refunds[0].OrderNumber)

	updated, err := svc.Update(ctx, r.ID, RefundInput{Amount: dec("90"), Reason: "Partial", Status: models.RefundStatusApproved, AdminNotes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusApproved, updated.Status)
	assert.Equal(t, "ok", *updated.AdminNotes)

	assert.Equal(t, models.OrderStatusPending, f.store.orders[order.ID].Status, "refunds leave the order status alone")

	require.NoError(t, svc.Delete(ctx, r.ID))
	_, err = svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefundValidation(t *testing.T) {
	f := newOrderFixture(t)
	order := placeTestOrder(t, f, 1)
	svc := NewRefundService(f.store, f.store, f.events)
	ctx := context.Background()

	var ve *ValidationError

	_, err := svc.Create(ctx, RefundInput{OrderID: order.ID, Amount: dec("325.01"), Reason: "x"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "amount")

	_, err = svc.Create(ctx, RefundInput{OrderID: 9999, Amount: dec("1"), Reason: "x"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "order_id")

	_, err = svc.Create(ctx, RefundInput{OrderID: order.ID, UserID: f.user.ID + 100, Amount: dec("1"), Reason: "x"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "user_id")

	_, err = svc.Create(ctx, RefundInput{OrderID: order.ID, Amount: dec("1"), Reason: "x", Status: "Paid"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "status")

	assert.Empty(t, f.store.refunds)
}
