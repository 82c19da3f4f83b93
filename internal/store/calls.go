package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CallSession is one audited call. CallSid is the transport's call id and
// is unique among open sessions; EndedReason is set when the call closes.
type CallSession struct {
	ID          uuid.UUID      `db:"id"`
	CallSid     string         `db:"call_sid"`
	CallerPhone sql.NullString `db:"caller_phone"`
	TicketRef   sql.NullString `db:"ticket_ref"`
	EndedReason sql.NullString `db:"ended_reason"`
	CreatedAt   string         `db:"created_at"`
	EndedAt     sql.NullString `db:"ended_at"`
}

// CallMessage is one transcript line, caller or agent side.
type CallMessage struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	Direction string    `db:"direction"`
	Content   string    `db:"content"`
	CreatedAt string    `db:"created_at"`
}

const DirectionIncoming = "incoming"
const DirectionOutgoing = "outgoing"

const sqlCreateCallSession = `
INSERT INTO call_sessions (call_sid, caller_phone)
VALUES ($1, $2)
RETURNING id, call_sid, caller_phone, ticket_ref, ended_reason, created_at, ended_at`

func (s *Store) CreateCallSession(ctx context.Context, callSid, callerPhone string) (*CallSession, error) {
	var session CallSession
	phone := sql.NullString{String: callerPhone, Valid: callerPhone != ""}
	err := s.db.GetContext(ctx, &session, sqlCreateCallSession, callSid, phone)
	if err != nil {
		s.logger.Error(ctx, "failed to create call session", err)
		return nil, fmt.Errorf("failed to create call session: %w", err)
	}
	return &session, nil
}

const sqlGetOpenCallSessionBySid = `
SELECT * FROM call_sessions WHERE call_sid = $1 AND ended_at IS NULL
ORDER BY created_at DESC LIMIT 1`

func (s *Store) GetOpenCallSession(ctx context.Context, callSid string) (*CallSession, error) {
	var session CallSession
	err := s.db.GetContext(ctx, &session, sqlGetOpenCallSessionBySid, callSid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get call session", err)
		return nil, fmt.Errorf("failed to get call session: %w", err)
	}
	return &session, nil
}

const sqlSetCallSessionTicketRef = `
UPDATE call_sessions SET ticket_ref = $2 WHERE id = $1`

func (s *Store) SetCallSessionTicketRef(ctx context.Context, sessionID uuid.UUID, ticketRef string) error {
	_, err := s.db.ExecContext(ctx, sqlSetCallSessionTicketRef, sessionID, ticketRef)
	if err != nil {
		s.logger.Error(ctx, "failed to set call session ticket ref", err)
		return fmt.Errorf("failed to set call session ticket ref: %w", err)
	}
	return nil
}

const sqlEndCallSession = `
UPDATE call_sessions SET ended_reason = $2, ended_at = now()
WHERE call_sid = $1 AND ended_at IS NULL`

func (s *Store) EndCallSession(ctx context.Context, callSid, reason string) error {
	_, err := s.db.ExecContext(ctx, sqlEndCallSession, callSid, reason)
	if err != nil {
		s.logger.Error(ctx, "failed to end call session", err)
		return fmt.Errorf("failed to end call session: %w", err)
	}
	return nil
}

const sqlCreateCallMessage = `
INSERT INTO call_messages (session_id, direction, content)
VALUES ($1, $2, $3)
RETURNING id, session_id, direction, content, created_at`

func (s *Store) CreateCallMessage(ctx context.Context, sessionID uuid.UUID, direction, content string) (*CallMessage, error) {
	var message CallMessage
	err := s.db.GetContext(ctx, &message, sqlCreateCallMessage, sessionID, direction, content)
	if err != nil {
		s.logger.Error(ctx, "failed to create call message", err)
		return nil, fmt.Errorf("failed to create call message: %w", err)
	}
	return &message, nil
}

const sqlGetCallMessagesBySession = `
SELECT * FROM call_messages WHERE session_id = $1 ORDER BY created_at ASC`

func (s *Store) GetCallMessages(ctx context.Context, sessionID uuid.UUID) ([]CallMessage, error) {
	var messages []CallMessage
	err := s.db.SelectContext(ctx, &messages, sqlGetCallMessagesBySession, sessionID)
	if err != nil {
		s.logger.Error(ctx, "failed to get call messages", err)
		return nil, fmt.Errorf("failed to get call messages: %w", err)
	}
	return messages, nil
}
