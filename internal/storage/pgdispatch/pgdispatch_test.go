package pgdispatch

import (
	"context"
	"testing"
	"time"

	"github.com/krishn-cti/remit-go/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGDispatch_RepoFlow(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "remit_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/remit_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	// клиент с адресами
	var customerID uint64
	err = st.db.QueryRow(ctx,
		`INSERT INTO customers (name, fcm_token, profile_image) VALUES ('Asha', 'cust-token', 'uploads/asha.png') RETURNING id`,
	).Scan(&customerID)
	require.NoError(t, err)

	var pickupID, dropoffID uint64
	err = st.db.QueryRow(ctx,
		`INSERT INTO pickup_addresses (customer_id, location, latitude, longitude) VALUES ($1, 'MG Road', 12.9, 77.6) RETURNING id`,
		customerID,
	).Scan(&pickupID)
	require.NoError(t, err)
	err = st.db.QueryRow(ctx,
		`INSERT INTO dropoff_addresses (customer_id, location, latitude, longitude) VALUES ($1, 'Airport Rd', 13.2, 77.7) RETURNING id`,
		customerID,
	).Scan(&dropoffID)
	require.NoError(t, err)

	customer, err := st.GetCustomerByID(ctx, customerID)
	require.NoError(t, err)
	require.Equal(t, "Asha", customer.Name)
	require.Equal(t, "cust-token", customer.PushToken)

	require.NoError(t, st.UpdateCustomerPushToken(ctx, customerID, "cust-token-2"))
	customer, err = st.GetCustomerByID(ctx, customerID)
	require.NoError(t, err)
	require.Equal(t, "cust-token-2", customer.PushToken)

	addr, err := st.GetPickupAddress(ctx, pickupID)
	require.NoError(t, err)
	require.InDelta(t, 12.9, addr.Latitude, 1e-9)

	// водители: активным считается только с токеном и координатами
	drv, err := st.CreateDriver(ctx, "Ravi")
	require.NoError(t, err)
	require.NotZero(t, drv.ID)
	require.NotEmpty(t, drv.UUID)

	active, err := st.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	require.NoError(t, st.UpdateDriverPushToken(ctx, drv.ID, "drv-token"))
	require.NoError(t, st.UpdateDriverLocation(ctx, drv.ID, 12.91, 77.61))

	active, err = st.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, drv.ID, active[0].ID)
	require.InDelta(t, 12.91, *active[0].Latitude, 1e-9)

	require.ErrorIs(t, st.UpdateDriverPushToken(ctx, 9999, "x"), ErrNotFound)

	// заказ
	exists, err := st.OrderCodeExists(ctx, "AB12CD")
	require.NoError(t, err)
	require.False(t, exists)

	order, err := st.CreateOrder(ctx, models.OrderCreateInput{
		Code:             "AB12CD",
		CustomerID:       customerID,
		PickupAddressID:  pickupID,
		DropoffAddressID: dropoffID,
		PackageIDs:       []int64{1, 2},
		PackageQtys:      []int64{1, 3},
		Amount:           250.50,
		PaymentMethodID:  1,
	})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, []int64{1, 2}, order.PackageIDs)
	require.InDelta(t, 250.50, order.Amount, 1e-9)

	exists, err = st.OrderCodeExists(ctx, "AB12CD")
	require.NoError(t, err)
	require.True(t, exists)

	got, err := st.GetOrderByCode(ctx, "AB12CD")
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)

	_, err = st.GetOrderByCode(ctx, "ZZZZZZ")
	require.ErrorIs(t, err, ErrNotFound)

	// условный переход: второй accept не проходит
	now := time.Now().UTC()
	n, err := st.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{
		FromStatus: models.OrderStatusPending,
		ToStatus:   models.OrderStatusAccepted,
		DriverID:   &drv.ID,
		PickedUpAt: &now,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = st.UpdateOrderStatus(ctx, order.ID, models.OrderStatusUpdate{
		FromStatus: models.OrderStatusPending,
		ToStatus:   models.OrderStatusAccepted,
		DriverID:   &drv.ID,
	})
	require.NoError(t, err)
	require.Zero(t, n)

	got, err = st.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusAccepted, got.Status)
	require.NotNil(t, got.DriverID)
	require.Equal(t, drv.ID, *got.DriverID)
	require.NotNil(t, got.PickedUpAt)

	// списки обеих сторон
	customerOrders, err := st.ListCustomerOrders(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, customerOrders, 1)
	require.Equal(t, "Ravi", customerOrders[0].DriverName)
	require.Equal(t, "MG Road", customerOrders[0].PickupLocation)

	driverOrders, err := st.ListDriverOrders(ctx, drv.ID)
	require.NoError(t, err)
	require.Len(t, driverOrders, 1)
	require.Equal(t, "Asha", driverOrders[0].CustomerName)

	// отказы: повторная запись не дублируется
	require.NoError(t, st.AddOrderRejection(ctx, order.ID, drv.ID))
	require.NoError(t, st.AddOrderRejection(ctx, order.ID, drv.ID))
	rejected, err := st.ListOrderRejections(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, []uint64{drv.ID}, rejected)

	// уведомления
	notifID, err := st.InsertNotification(ctx, &models.Notification{
		SendFromID:   &customerID,
		SendToID:     drv.ID,
		OrderCode:    "AB12CD",
		Title:        "New Package Available",
		Body:         "Asha has requested a package pickup near your location.",
		Kind:         models.NotificationKindOfferedToDriver,
		SenderRole:   models.RoleUser,
		ReceiverRole: models.RoleDriver,
	})
	require.NoError(t, err)
	require.NotZero(t, notifID)

	require.NoError(t, st.SetNotificationAction(ctx, "AB12CD", models.NotificationActionAccepted))

	ns, err := st.ListNotifications(ctx, models.RoleDriver, drv.ID)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.Equal(t, models.NotificationActionAccepted, ns[0].Action)

	// удаляются только закрытые (completed/rejected)
	deleted, err := st.DeleteDriverNotifications(ctx, drv.ID)
	require.NoError(t, err)
	require.Zero(t, deleted)

	require.NoError(t, st.SetNotificationAction(ctx, "AB12CD", models.NotificationActionCompleted))
	deleted, err = st.DeleteDriverNotifications(ctx, drv.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	deleted, err = st.DeleteNotification(ctx, notifID)
	require.NoError(t, err)
	require.Zero(t, deleted)
}
