package orders

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vestia_back_end/internal/models"
)

func TestHappyPathTransitions(t *testing.T) {
	path := []string{
		models.OrderPending, models.OrderPaid, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		require.True(t, CanTransition(path[i], path[i+1]), "%s → %s", path[i], path[i+1])
	}
}

func TestCancellationAndRefundTransitions(t *testing.T) {
	require.True(t, CanTransition(models.OrderPending, models.OrderCancelled))
	require.True(t, CanTransition(models.OrderPaid, models.OrderCancelled))
	require.True(t, CanTransition(models.OrderPaid, models.OrderRefunded))

	// Annulation impossible une fois en préparation ou expédiée
	require.False(t, CanTransition(models.OrderProcessing, models.OrderCancelled))
	require.False(t, CanTransition(models.OrderShipped, models.OrderCancelled))
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	terminals := []string{models.OrderDelivered, models.OrderCancelled, models.OrderRefunded}
	all := []string{
		models.OrderPending, models.OrderPaid, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered, models.OrderCancelled, models.OrderRefunded,
	}
	for _, from := range terminals {
		require.True(t, IsTerminal(from))
		for _, to := range all {
			require.False(t, CanTransition(from, to), "%s → %s devrait être refusé", from, to)
		}
	}
}

func TestNoBackwardTransition(t *testing.T) {
	// delivered → pending est le cas signalé : il doit être refusé
	require.False(t, CanTransition(models.OrderDelivered, models.OrderPending))
	require.False(t, CanTransition(models.OrderPaid, models.OrderPending))
	require.False(t, CanTransition(models.OrderShipped, models.OrderProcessing))
}

func TestValidStatus(t *testing.T) {
	require.True(t, ValidStatus(models.OrderPending))
	require.True(t, ValidStatus(models.OrderRefunded))
	require.False(t, ValidStatus("expedida"))
	require.False(t, ValidStatus(""))
}
