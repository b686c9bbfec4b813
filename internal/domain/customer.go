package domain

import "time"

// Customer описывает клиента. Из ядра заказов справочник клиентов доступен
// только на чтение.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   Address
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля клиента.
func (c *Customer) Validate() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}
	if c.Phone == "" {
		errs = append(errs, ErrCustomerPhoneRequired)
	}

	return errs
}
