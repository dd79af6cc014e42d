package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
)

// PaymentFilter narrows ListPayments. Zero values mean "any".
type PaymentFilter struct {
	BatchID  *uuid.UUID
	Provider constants.Provider
	From     *dates.Date
	To       *dates.Date
	Limit    int
}

type ScheduleRepository interface {
	CreateBatch(ctx context.Context, id uuid.UUID, mode constants.Mode) error
	MarkRunning(ctx context.Context, id uuid.UUID) error
	SaveBatch(ctx context.Context, id uuid.UUID, res *entity.BatchResult) error
	FailBatch(ctx context.Context, id uuid.UUID, message string) error
	GetBatch(ctx context.Context, id uuid.UUID) (*entity.BatchRecord, error)
	ListPayments(ctx context.Context, f PaymentFilter) ([]entity.StoredPayment, error)
}

type scheduleRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewScheduleRepository(db *DB, log *slog.Logger) ScheduleRepository {
	if log == nil {
		log = slog.Default()
	}
	return &scheduleRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (r *scheduleRepo) stamp() string {
	return r.now().Format(time.RFC3339Nano)
}

func (r *scheduleRepo) CreateBatch(ctx context.Context, id uuid.UUID, mode constants.Mode) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO extract_batch (id, mode, status, started_at) VALUES (?, ?, ?, ?)`),
		id.String(), string(mode), string(constants.BatchStatusQueued), r.stamp())
	if err != nil {
		r.log.Error("extract_batch create failed", "batch_id", id, "err", err)
		return common.WrapError(errors.Join(common.ErrDatabase, err), "create batch")
	}
	r.log.Info("extract_batch created", "batch_id", id, "mode", mode)
	return nil
}

func (r *scheduleRepo) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, constants.BatchStatusRunning, nil)
}

func (r *scheduleRepo) FailBatch(ctx context.Context, id uuid.UUID, message string) error {
	if err := r.setStatus(ctx, id, constants.BatchStatusFailed, &message); err != nil {
		return err
	}
	r.log.Warn("extract_batch finished (FAILED)", "batch_id", id, "error", message)
	return nil
}

func (r *scheduleRepo) setStatus(ctx context.Context, id uuid.UUID, status constants.BatchStatus, message *string) error {
	var finished any
	if status == constants.BatchStatusDone || status == constants.BatchStatusFailed {
		finished = r.stamp()
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE extract_batch SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`),
		string(status), finished, message, id.String())
	if err != nil {
		r.log.Error("extract_batch status update failed", "batch_id", id, "status", status, "err", err)
		return common.WrapError(errors.Join(common.ErrDatabase, err), "update batch")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.WrapError(common.ErrNotFound, fmt.Sprintf("batch %s", id))
	}
	return nil
}

// SaveBatch stores the result document and one payment row per success,
// replacing anything previously stored for id. The batch row is created when
// it does not exist yet.
func (r *scheduleRepo) SaveBatch(ctx context.Context, id uuid.UUID, res *entity.BatchResult) (err error) {
	doc, err := json.Marshal(res)
	if err != nil {
		return common.WrapError(err, "marshal batch result")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(errors.Join(common.ErrDatabase, err), "begin tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := r.stamp()
	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO extract_batch (id, mode, status, fragment_count, success_count, started_at, finished_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			mode = excluded.mode,
			status = excluded.status,
			fragment_count = excluded.fragment_count,
			success_count = excluded.success_count,
			finished_at = excluded.finished_at,
			error_message = NULL,
			result_json = excluded.result_json`),
		id.String(), string(res.Mode), string(constants.BatchStatusDone),
		len(res.Results), res.Count(entity.KindSuccess), now, now, string(doc))
	if err != nil {
		r.log.Error("extract_batch save failed", "batch_id", id, "err", err)
		return common.WrapError(errors.Join(common.ErrDatabase, err), "save batch")
	}

	if _, err = tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM payment WHERE batch_id = ?`), id.String()); err != nil {
		return common.WrapError(errors.Join(common.ErrDatabase, err), "clear payments")
	}

	insert := r.db.Rebind(`
		INSERT INTO payment (batch_id, ordinal, provider, due_date, amount, installment_index,
			installment_total, autopay_enabled, confidence, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	saved := 0
	for _, result := range res.Results {
		if result.Success == nil {
			continue
		}
		p := result.Success.Payment
		_, err = tx.ExecContext(ctx, insert,
			id.String(), result.Index, string(p.Provider),
			nullableDate(p.DueDate), nullableMoney(p.Amount),
			nullableInt(p.InstallmentIndex), nullableInt(p.InstallmentTotal),
			nullableBool(p.AutopayEnabled), nullableInt(result.Success.Confidence),
			p.Description)
		if err != nil {
			r.log.Error("payment insert failed", "batch_id", id, "ordinal", result.Index, "err", err)
			return common.WrapError(errors.Join(common.ErrDatabase, err), "insert payment")
		}
		saved++
	}

	if err = tx.Commit(); err != nil {
		return common.WrapError(errors.Join(common.ErrDatabase, err), "commit")
	}
	r.log.Info("extract_batch finished (DONE)", "batch_id", id, "fragments", len(res.Results), "payments", saved)
	return nil
}

func (r *scheduleRepo) GetBatch(ctx context.Context, id uuid.UUID) (*entity.BatchRecord, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, mode, status, fragment_count, success_count, started_at, finished_at, error_message, result_json
		FROM extract_batch WHERE id = ?`), id.String())

	var (
		rec                  entity.BatchRecord
		rawID, mode, status  string
		started              string
		finished, msg, jsonb sql.NullString
	)
	err := row.Scan(&rawID, &mode, &status, &rec.FragmentCount, &rec.SuccessCount, &started, &finished, &msg, &jsonb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.WrapError(common.ErrNotFound, fmt.Sprintf("batch %s", id))
	}
	if err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "get batch")
	}

	if rec.ID, err = uuid.Parse(rawID); err != nil {
		return nil, common.WrapError(err, "parse batch id")
	}
	rec.Mode = constants.Mode(mode)
	rec.Status = constants.BatchStatus(status)
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, common.WrapError(err, "parse started_at")
	}
	if finished.Valid {
		t, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return nil, common.WrapError(err, "parse finished_at")
		}
		rec.FinishedAt = &t
	}
	if msg.Valid {
		rec.ErrorMessage = &msg.String
	}
	if jsonb.Valid {
		rec.ResultJSON = json.RawMessage(jsonb.String)
	}
	return &rec, nil
}

func (r *scheduleRepo) ListPayments(ctx context.Context, f PaymentFilter) ([]entity.StoredPayment, error) {
	var (
		where []string
		args  []any
	)
	if f.BatchID != nil {
		where = append(where, "batch_id = ?")
		args = append(args, f.BatchID.String())
	}
	if f.Provider != "" {
		where = append(where, "provider = ?")
		args = append(args, string(f.Provider))
	}
	if f.From != nil {
		where = append(where, "due_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		where = append(where, "due_date <= ?")
		args = append(args, f.To.String())
	}

	q := `SELECT batch_id, ordinal, provider, due_date, amount, installment_index, installment_total,
		autopay_enabled, confidence, description FROM payment`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY due_date IS NULL, due_date, batch_id, ordinal"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "list payments")
	}
	defer rows.Close()

	out := []entity.StoredPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "list payments")
	}
	return out, nil
}

func scanPayment(rows *sql.Rows) (entity.StoredPayment, error) {
	var (
		p                       entity.StoredPayment
		batchID, prov           string
		due, amount             sql.NullString
		idx, total, auto, score sql.NullInt64
	)
	if err := rows.Scan(&batchID, &p.Ordinal, &prov, &due, &amount, &idx, &total, &auto, &score, &p.Description); err != nil {
		return p, common.WrapError(errors.Join(common.ErrDatabase, err), "scan payment")
	}
	var err error
	if p.BatchID, err = uuid.Parse(batchID); err != nil {
		return p, common.WrapError(err, "parse batch id")
	}
	p.Provider = constants.Provider(prov)
	if due.Valid {
		d, err := dates.Parse(due.String)
		if err != nil {
			return p, common.WrapError(err, "parse due_date")
		}
		p.DueDate = &d
	}
	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return p, common.WrapError(err, "parse amount")
		}
		m := entity.NewMoney(d)
		p.Amount = &m
	}
	p.InstallmentIndex = intPtr(idx)
	p.InstallmentTotal = intPtr(total)
	p.Confidence = intPtr(score)
	if auto.Valid {
		on := auto.Int64 != 0
		p.AutopayEnabled = &on
	}
	return p, nil
}

func nullableDate(d *dates.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullableMoney(m *entity.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return int64(*n)
}

func nullableBool(b *bool) any {
	switch {
	case b == nil:
		return nil
	case *b:
		return int64(1)
	default:
		return int64(0)
	}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
