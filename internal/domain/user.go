package domain

import "strings"

// User описывает зарегистрированного покупателя.
type User struct {
	ID    int64
	Name  string
	Email string
	// Password хранит bcrypt-хэш, никогда не открытый пароль.
	Password string
	Document string
}

// AddressFields — данные адреса без владельца и идентификатора.
type AddressFields struct {
	Street       string
	Number       string
	Neighborhood string
	ZipCode      string
	// Complement может быть пустым.
	Complement string
	City       string
	State      string
}

// Normalize обрезает пробелы по краям во всех полях.
func (f AddressFields) Normalize() AddressFields {
	return AddressFields{
		Street:       strings.TrimSpace(f.Street),
		Number:       strings.TrimSpace(f.Number),
		Neighborhood: strings.TrimSpace(f.Neighborhood),
		ZipCode:      strings.TrimSpace(f.ZipCode),
		Complement:   strings.TrimSpace(f.Complement),
		City:         strings.TrimSpace(f.City),
		State:        strings.TrimSpace(f.State),
	}
}

// Validate проверяет полноту адреса и возвращает список замечаний.
func (f AddressFields) Validate() []error {
	var errs []error
	f = f.Normalize()
	if f.Street == "" {
		errs = append(errs, ErrStreetRequired)
	}
	if f.Number == "" {
		errs = append(errs, ErrNumberRequired)
	}
	if f.Neighborhood == "" {
		errs = append(errs, ErrNeighborhoodRequired)
	}
	if f.ZipCode == "" {
		errs = append(errs, ErrZipCodeRequired)
	}
	if f.City == "" {
		errs = append(errs, ErrCityRequired)
	}
	if f.State == "" {
		errs = append(errs, ErrStateRequired)
	}
	return errs
}

// Address принадлежит ровно одному пользователю.
type Address struct {
	ID     int64
	UserID int64
	AddressFields
}

// BelongsTo сообщает, владеет ли пользователь адресом.
func (a Address) BelongsTo(userID int64) bool {
	return a.UserID == userID
}
