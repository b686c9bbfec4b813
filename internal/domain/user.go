package domain

import "time"

// UserRole — роль учётной записи сотрудника.
type UserRole string

const (
	// UserRoleAdmin имеет полный доступ к каталогу, клиентам и заказам.
	UserRoleAdmin UserRole = "admin"
	// UserRoleUser может только аутентифицироваться и смотреть учётные записи.
	UserRoleUser UserRole = "user"
)

// ParseUserRole разбирает строковую роль; пустая строка означает роль по умолчанию.
func ParseUserRole(raw string) (UserRole, error) {
	switch UserRole(raw) {
	case UserRoleAdmin, UserRoleUser:
		return UserRole(raw), nil
	case "":
		return UserRoleUser, nil
	default:
		return "", ErrUserRoleUnknown
	}
}

// User — учётная запись сотрудника магазина. PasswordHash хранит bcrypt-хэш,
// открытый пароль нигде не сохраняется.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate проверяет обязательные поля учётной записи.
func (u *User) Validate() []error {
	var errs []error

	if u.Name == "" {
		errs = append(errs, ErrUserNameRequired)
	}
	if u.Email == "" {
		errs = append(errs, ErrUserEmailRequired)
	}
	if u.PasswordHash == "" {
		errs = append(errs, ErrUserPasswordRequired)
	}
	if u.Role != UserRoleAdmin && u.Role != UserRoleUser {
		errs = append(errs, ErrUserRoleUnknown)
	}

	return errs
}
