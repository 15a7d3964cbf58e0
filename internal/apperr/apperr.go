// Package apperr определяет доменные ошибки сервиса подписок.
// Обработчики HTTP сопоставляют их с кодами ответов через errors.Is и errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// Сигнальные ошибки "не найдено". Возвращаются хранилищем и шлюзом,
// наружу отдаются как 404.
var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrCustomerNotFound   = errors.New("customer not found")
)

// Ошибки обработки вебхуков. Проверка подписи выполняется до разбора
// полей, поэтому ErrInvalidSignature исключает любые изменения состояния.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// ValidationError — некорректные или отсутствующие входные данные.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Validation создает ValidationError для поля.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// GatewayError — любая ошибка платёжного провайдера. Message содержит
// текст ошибки провайдера и отдается вызывающей стороне; локальное
// состояние при такой ошибке не изменяется.
type GatewayError struct {
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: payment gateway: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PersistenceError — сбой локальной фиксации после того, как удалённый
// вызов уже выполнился. Логируется как разрыв согласованности с провайдером,
// компенсирующая отмена удалённой подписки не выполняется.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsNotFound сообщает, является ли ошибка одной из ошибок "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSubscriberNotFound) ||
		errors.Is(err, ErrCustomerNotFound)
}
