package domain

import "time"

// Book описывает книгу каталога. StockQuantity мутируется только через
// условный декремент Inventory Ledger и через CRUD каталога.
type Book struct {
	ID     string
	Title  string
	Author string
	ISBN   string
	Genre  string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// StockQuantity — остаток на складе; инвариант: всегда >= 0.
	StockQuantity int32
	PublishedYear int32
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate проверяет обязательные поля книги и возвращает список замечаний.
func (b *Book) Validate() []error {
	var errs []error

	if b.Title == "" {
		errs = append(errs, ErrBookTitleRequired)
	}
	if b.Author == "" {
		errs = append(errs, ErrBookAuthorRequired)
	}
	if b.ISBN == "" {
		errs = append(errs, ErrBookISBNRequired)
	}
	if b.Genre == "" {
		errs = append(errs, ErrBookGenreRequired)
	}
	if b.PriceMinor < 0 {
		errs = append(errs, ErrBookPriceInvalid)
	}
	if b.StockQuantity < 0 {
		errs = append(errs, ErrBookStockInvalid)
	}

	return errs
}
