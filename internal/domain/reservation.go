package domain

import "time"

// ReservationStatus отражает статус резерва стока под заказ.
type ReservationStatus string

const (
	// ReservationStatusReserved — сток успешно списан условным декрементом.
	ReservationStatusReserved ReservationStatus = "reserved"
	// ReservationStatusReleased — резерв возвращён на склад (компенсация).
	ReservationStatusReleased ReservationStatus = "released"
)

// Reservation — токен состоявшегося атомарного списания стока книги.
// Используется билдером заказа для компенсации при частичном сбое.
type Reservation struct {
	ID        string
	BookID    string
	Qty       int32
	Status    ReservationStatus
	CreatedAt time.Time
}

// Released сообщает, был ли резерв уже возвращён на склад.
func (r *Reservation) Released() bool {
	return r.Status == ReservationStatusReleased
}
