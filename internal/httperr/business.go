package httperr

import (
	"errors"
	"net/http"
)

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// business codes that are not plain 400s
var businessStatus = map[string]int{
	"invalid_credentials":            http.StatusUnauthorized,
	"email_not_verified":             http.StatusForbidden,
	"not_restaurant_owner":           http.StatusForbidden,
	"email_already_registered":       http.StatusConflict,
	"restaurant_has_active_bookings": http.StatusConflict,
	"invalid_verification_token":     http.StatusNotFound,
	"user_not_found":                 http.StatusNotFound,
}
