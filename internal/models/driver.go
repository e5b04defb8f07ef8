package models

import "time"

// Driver — водитель в том объёме, который нужен диспетчеризации.
// Локацию обновляет приложение водителя; для подбора она read-only.
type Driver struct {
	ID           uint64
	UUID         string
	Name         string
	PushToken    string
	Latitude     *float64
	Longitude    *float64
	ProfileImage string
	UpdatedAt    time.Time
}

// Active сообщает, можно ли предлагать водителю заказы:
// нужен push-токен и известная локация.
func (d *Driver) Active() bool {
	return d.PushToken != "" && d.Latitude != nil && d.Longitude != nil
}

type Customer struct {
	ID           uint64
	Name         string
	PushToken    string
	ProfileImage string
}
