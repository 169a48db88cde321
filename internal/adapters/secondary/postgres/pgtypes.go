package postgres

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/solvedesk/helpdesk-backend/internal/core/domain"
)

// pgUUID converts a uuid.UUID to its pgtype wire form.
func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// fromPgUUIDPtr converts a nullable pgtype.UUID back to an optional uuid.
func fromPgUUIDPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

// fromPgTimestampPtr renders a nullable timestamp as an optional RFC 3339
// string, matching how snapshots carry times.
func fromPgTimestampPtr(ts pgtype.Timestamptz) *string {
	if !ts.Valid {
		return nil
	}
	s := domain.FormatTime(ts.Time)
	return &s
}
