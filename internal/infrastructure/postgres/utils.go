package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Códigos SQLSTATE que se tratan como conflicto reintentable.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// Restricciones de datos: el movimiento no es representable en el esquema.
const (
	codeCheckViolation    = "23514"
	codeNumericOutOfRange = "22003"
	codeForeignKey        = "23503"
)

// mapError traduce errores de pgx a errores de dominio. op describe la operación fallida.
// Conflictos de bloqueo/serialización -> ErrConflict (reintentable); fallas de conexión -> ErrStorage.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrConflict, pgErr.Message)
		case codeCheckViolation, codeNumericOutOfRange, codeForeignKey:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidMovement, pgErr.Message)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
