package models

import "time"

// Статусы заказа. 0 — это и "создан", и "отклонён": заказ без водителя
// остаётся в пуле до следующего оффера.
const (
	OrderStatusPending   = 0
	OrderStatusAccepted  = 1
	OrderStatusCompleted = 2
)

type Order struct {
	ID               uint64
	Code             string
	CustomerID       uint64
	PickupAddressID  uint64
	DropoffAddressID uint64
	PackageIDs       []int64
	PackageQtys      []int64
	Amount           float64
	PaymentMethodID  uint64
	DriverID         *uint64
	Status           int
	PickedUpAt       *time.Time
	DeliveredAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderCreateInput struct {
	Code             string
	CustomerID       uint64
	PickupAddressID  uint64
	DropoffAddressID uint64
	PackageIDs       []int64
	PackageQtys      []int64
	Amount           float64
	PaymentMethodID  uint64
}

// OrderStatusUpdate — одна условная мутация статуса: применяется только если
// текущий статус равен FromStatus (optimistic guard против гонок accept/complete).
type OrderStatusUpdate struct {
	FromStatus  int
	ToStatus    int
	DriverID    *uint64
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
}

// OrderSummary — строка списка заказов с данными второй стороны.
type OrderSummary struct {
	Order
	DriverName      string
	DriverImage     string
	CustomerName    string
	CustomerImage   string
	PickupLocation  string
	DropoffLocation string
}

// Address — точка забора или доставки заказа.
type Address struct {
	ID        uint64
	OwnerID   uint64
	Location  string
	Latitude  float64
	Longitude float64
}
