package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var errInvalidTx = errors.New("invalid transaction type")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// asTx unwraps a transaction handed out by a repository Begin
func asTx(tx interface{}) (pgx.Tx, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, errInvalidTx
	}
	return pgxTx, nil
}

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

// optionalDecimalToPgNumeric maps nil to SQL NULL
func optionalDecimalToPgNumeric(d *decimal.Decimal) (pgtype.Numeric, error) {
	if d == nil {
		return pgtype.Numeric{}, nil
	}
	return decimalToPgNumeric(*d)
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func pgNumericToOptionalDecimal(n pgtype.Numeric) *decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d
}

// numericArgs converts optional decimals in order, stopping at the first error
func numericArgs(values ...*decimal.Decimal) ([]pgtype.Numeric, error) {
	nums := make([]pgtype.Numeric, len(values))
	for i, v := range values {
		num, err := optionalDecimalToPgNumeric(v)
		if err != nil {
			return nil, err
		}
		nums[i] = num
	}
	return nums, nil
}
