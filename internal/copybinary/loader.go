package copybinary

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
)

// Load streams r — the raw bytes produced by an Encoder — into table
// through conn's COPY protocol, without re-encoding anything: the bit
// layout written by Encoder.WriteRow is exactly what PostgreSQL's
// binary COPY FROM expects, so this is a transport, not a codec.
func Load(ctx context.Context, conn *pgx.Conn, table string, columns []string, r io.Reader) (int64, error) {
	tag, err := conn.PgConn().CopyFrom(ctx, r, copyFromSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("copybinary: COPY FROM failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func copyFromSQL(table string, columns []string) string {
	ident := pgx.Identifier{table}.Sanitize()
	colList := ""
	for i, c := range columns {
		if i > 0 {
			colList += ", "
		}
		colList += pgx.Identifier{c}.Sanitize()
	}
	return fmt.Sprintf("COPY %s (%s) FROM STDIN (FORMAT binary)", ident, colList)
}
