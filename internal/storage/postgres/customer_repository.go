package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

const customerColumns = `id, name, email, phone, addr_street, addr_city,
	addr_state, addr_zip, addr_country, created_at, updated_at`

func (r *customerRepository) Create(customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (
			id, name, email, phone, addr_street, addr_city,
			addr_state, addr_zip, addr_country, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		customer.ID, customer.Name, customer.Email, customer.Phone,
		customer.Address.Street, customer.Address.City, customer.Address.State,
		customer.Address.ZipCode, customer.Address.Country,
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCustomerEmailTaken
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

func (r *customerRepository) Get(id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)

	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}

	return customer, nil
}

func (r *customerRepository) List(search string, page domain.Page) ([]domain.Customer, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	page = page.Normalize()

	cond := ""
	args := make([]any, 0, 3)
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		cond = " WHERE LOWER(name) LIKE $1 OR LOWER(email) LIKE $1"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(
		`SELECT `+customerColumns+` FROM customers`+cond+
			` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer row: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customer rows: %w", err)
	}

	return customers, total, nil
}

func (r *customerRepository) Update(customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2,
		    phone = $3,
		    addr_street = $4,
		    addr_city = $5,
		    addr_state = $6,
		    addr_zip = $7,
		    addr_country = $8,
		    updated_at = $9
		WHERE id = $1
	`,
		customer.ID, customer.Name, customer.Phone,
		customer.Address.Street, customer.Address.City, customer.Address.State,
		customer.Address.ZipCode, customer.Address.Country, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	return requireAffected(res, domain.ErrCustomerNotFound)
}

func (r *customerRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	return requireAffected(res, domain.ErrCustomerNotFound)
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var customer domain.Customer
	err := row.Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.Phone,
		&customer.Address.Street, &customer.Address.City, &customer.Address.State,
		&customer.Address.ZipCode, &customer.Address.Country,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	return customer, err
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
