package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Columnas de cabecera comunes a todas las tablas de documentos (en este orden).
const headerColumns = `id, number, company_id, status, notes, created_by, created_at, updated_at,
	confirmed_at, cancelled_at, cancelled_by, cancel_reason`

const headerCount = 12

// headerUpdate SET del upsert: id, number, empresa y creación no cambian.
const headerUpdate = `status = EXCLUDED.status, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at,
	confirmed_at = EXCLUDED.confirmed_at, cancelled_at = EXCLUDED.cancelled_at,
	cancelled_by = EXCLUDED.cancelled_by, cancel_reason = EXCLUDED.cancel_reason`

func headerValues(h *entity.DocumentHeader) []any {
	return []any{h.ID, h.Number, h.CompanyID, string(h.Status), h.Notes, h.CreatedBy, h.CreatedAt, h.UpdatedAt,
		h.ConfirmedAt, h.CancelledAt, h.CancelledBy, h.CancelReason}
}

func headerTargets(h *entity.DocumentHeader) []any {
	return []any{&h.ID, &h.Number, &h.CompanyID, (*string)(&h.Status), &h.Notes, &h.CreatedBy, &h.CreatedAt, &h.UpdatedAt,
		&h.ConfirmedAt, &h.CancelledAt, &h.CancelledBy, &h.CancelReason}
}

// placeholders "$from, ..., $from+n-1".
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

// upsertHeader inserta o actualiza la cabecera. extraCols son las columnas propias del documento.
func upsertHeader(ctx context.Context, q Querier, table string, h *entity.DocumentHeader, extraCols []string, extra ...any) error {
	set := make([]string, 0, len(extraCols))
	for _, c := range extraCols {
		set = append(set, c+" = EXCLUDED."+c)
	}
	cols := headerColumns
	update := headerUpdate
	if len(extraCols) > 0 {
		cols += ", " + strings.Join(extraCols, ", ")
		update += ", " + strings.Join(set, ", ")
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		table, cols, placeholders(1, headerCount+len(extraCols)), update)
	if _, err := q.Exec(ctx, query, append(headerValues(h), extra...)...); err != nil {
		return mapError("save "+table, err)
	}
	return nil
}

// replaceLines borra las líneas del documento e inserta las nuevas con line_no.
func replaceLines(ctx context.Context, q Querier, table, fk, docID string, cols []string, rows [][]any) error {
	if _, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, fk), docID); err != nil {
		return mapError("delete "+table, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, line_no, %s) VALUES (%s)`,
		table, fk, strings.Join(cols, ", "), placeholders(1, len(cols)+2))
	for i, r := range rows {
		args := append([]any{docID, i}, r...)
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return mapError("insert "+table, err)
		}
	}
	return nil
}

// scanHeader ejecuta la consulta de cabecera; found=false si no hay fila.
func scanHeader(row pgx.Row, targets []any) (bool, error) {
	if err := row.Scan(targets...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, mapError("get document", err)
	}
	return true, nil
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

// nullIfEmpty escribe NULL en columnas FK opcionales (movement_id de un borrador).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
