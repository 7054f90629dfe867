package edge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"linkage/internal/relationship/models"
	"linkage/internal/relationship/query"
	id "linkage/pkg/domain"
	"linkage/pkg/platform/sentinel"
	txcontext "linkage/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists edges in relationship_edges. A partial unique index on
// (primary_party_id, related_party_id, relationship_type) WHERE deleted_at IS NULL
// backs duplicate rejection under concurrent creates.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed edge store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const edgeColumns = `id, kind, primary_party_id, related_party_id, relationship_type,
	ownership_percentage, effective_from, effective_to, status, is_primary, is_reciprocal, notes,
	verification_status, verified_by, verified_at, verification_method, rejection_reason,
	risk_level, risk_factors, is_high_risk, is_pep_related, is_sanctions_related, requires_edd,
	is_escalated, escalated_to, escalation_reason, escalated_at, escalated_by,
	last_reviewed_date, reviewed_by, next_review_date,
	created_by, created_at, updated_by, updated_at, deleted_at, deleted_by`

// Create inserts an edge. A unique violation on the live-tuple index yields ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, e *models.Edge) error {
	stmt := `INSERT INTO relationship_edges (` + edgeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37)`
	_, err := txcontext.Use(ctx, s.db).ExecContext(ctx, stmt,
		uuid.UUID(e.ID),
		string(e.Kind),
		string(e.PrimaryPartyID),
		string(e.RelatedPartyID),
		e.RelationshipType,
		nullFloat(e.OwnershipPercentage),
		e.EffectiveFrom,
		nullTime(e.EffectiveTo),
		string(e.Status),
		e.IsPrimary,
		e.IsReciprocal,
		e.Notes,
		string(e.VerificationStatus),
		nullString(string(e.VerifiedBy)),
		nullTime(e.VerifiedAt),
		nullString(e.VerificationMethod),
		nullString(e.RejectionReason),
		string(e.RiskLevel),
		pq.Array(riskFactors(e.RiskFactors)),
		e.IsHighRisk,
		e.IsPEPRelated,
		e.IsSanctionsRelated,
		e.RequiresEDD,
		e.IsEscalated,
		nullString(e.EscalatedTo),
		nullString(e.EscalationReason),
		nullTime(e.EscalatedAt),
		nullString(string(e.EscalatedBy)),
		nullTime(e.LastReviewedDate),
		nullString(string(e.ReviewedBy)),
		nullTime(e.NextReviewDate),
		string(e.CreatedBy),
		e.CreatedAt,
		string(e.UpdatedBy),
		e.UpdatedAt,
		nullTime(e.DeletedAt),
		nullString(string(e.DeletedBy)),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("edge %s: %w", e.Key(), sentinel.ErrConflict)
		}
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

// FindByID returns the edge, including soft-deleted ones.
func (s *PostgresStore) FindByID(ctx context.Context, edgeID id.EdgeID) (*models.Edge, error) {
	stmt := `SELECT ` + edgeColumns + ` FROM relationship_edges WHERE id = $1`
	e, err := scanEdge(txcontext.Use(ctx, s.db).QueryRowContext(ctx, stmt, uuid.UUID(edgeID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find edge by id: %w", err)
	}
	return e, nil
}

// snapshotRead gives multi-statement reads one consistent view.
var snapshotRead = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// List returns a page of matching edges, newest first, and the total match
// count. Both queries read the same snapshot.
func (s *PostgresStore) List(ctx context.Context, filter models.Filter, page models.Page, now time.Time) (*models.ListResult, error) {
	var result *models.ListResult
	err := txcontext.RunWithOptions(ctx, s.db, snapshotRead, func(txCtx context.Context) error {
		var err error
		result, err = s.list(txCtx, filter, page, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) list(ctx context.Context, filter models.Filter, page models.Page, now time.Time) (*models.ListResult, error) {
	pred := query.Build(filter, now)
	q := txcontext.Use(ctx, s.db)

	var countArgs query.Args
	countSQL := `SELECT COUNT(*) FROM relationship_edges WHERE ` + pred.SQL(&countArgs)
	result := &models.ListResult{Limit: page.Limit, Offset: page.Offset}
	if err := q.QueryRowContext(ctx, countSQL, countArgs.Values()...).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}

	var args query.Args
	listSQL := `SELECT ` + edgeColumns + ` FROM relationship_edges WHERE ` + pred.SQL(&args) +
		` ORDER BY created_at DESC, id ASC`
	if !page.IsUnbounded() {
		listSQL += ` LIMIT ` + args.Add(page.Limit) + ` OFFSET ` + args.Add(page.Offset)
	}
	rows, err := q.QueryContext(ctx, listSQL, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	result.Edges = make([]*models.Edge, 0)
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		result.Edges = append(result.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return result, nil
}

// Statistics counts matching edges with COUNT(*) FILTER per derived metric and
// one grouped query per breakdown, never loading rows. Totals and breakdowns
// read the same snapshot.
func (s *PostgresStore) Statistics(ctx context.Context, filter models.Filter, now time.Time) (*models.Statistics, error) {
	var stats *models.Statistics
	err := txcontext.RunWithOptions(ctx, s.db, snapshotRead, func(txCtx context.Context) error {
		var err error
		stats, err = s.statistics(txCtx, filter, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *PostgresStore) statistics(ctx context.Context, filter models.Filter, now time.Time) (*models.Statistics, error) {
	pred := query.Build(filter, now)
	metrics := query.Metrics(now)
	q := txcontext.Use(ctx, s.db)
	stats := models.NewStatistics()

	var args query.Args
	where := pred.SQL(&args)
	selects := make([]string, 0, len(metrics)+1)
	selects = append(selects, "COUNT(*)")
	for _, m := range metrics {
		selects = append(selects, "COUNT(*) FILTER (WHERE "+m.Predicate.SQL(&args)+")")
	}
	totalsSQL := `SELECT ` + strings.Join(selects, ", ") + ` FROM relationship_edges WHERE ` + where

	counts := make([]int, len(metrics)+1)
	dest := make([]any, len(counts))
	for i := range counts {
		dest[i] = &counts[i]
	}
	if err := q.QueryRowContext(ctx, totalsSQL, args.Values()...).Scan(dest...); err != nil {
		return nil, fmt.Errorf("count edge statistics: %w", err)
	}
	stats.Total = counts[0]
	for i, m := range metrics {
		m.Add(stats, counts[i+1])
	}

	var groupArgs query.Args
	groupWhere := pred.SQL(&groupArgs)
	branches := make([]string, len(query.Groups))
	for i, g := range query.Groups {
		branches[i] = fmt.Sprintf(`SELECT %d AS dim, %s AS bucket, COUNT(*) AS n FROM relationship_edges WHERE %s GROUP BY %s`,
			i, g.Field.Column, groupWhere, g.Field.Column)
	}
	rows, err := q.QueryContext(ctx, strings.Join(branches, " UNION ALL "), groupArgs.Values()...)
	if err != nil {
		return nil, fmt.Errorf("group edge statistics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			dim    int
			bucket string
			n      int
		)
		if err := rows.Scan(&dim, &bucket, &n); err != nil {
			return nil, fmt.Errorf("scan edge statistics: %w", err)
		}
		if dim < 0 || dim >= len(query.Groups) {
			continue
		}
		query.Groups[dim].Add(stats, bucket, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edge statistics: %w", err)
	}
	return stats, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate and mutate,
// then writes back only the columns owned by group. Writers on different groups
// of the same edge never overwrite each other's columns.
func (s *PostgresStore) Execute(ctx context.Context, edgeID id.EdgeID, group models.FieldGroup, validate func(*models.Edge) error, mutate func(*models.Edge)) (*models.Edge, error) {
	var updated *models.Edge
	err := txcontext.Run(ctx, s.db, func(txCtx context.Context) error {
		q := txcontext.Use(txCtx, s.db)
		stmt := `SELECT ` + edgeColumns + ` FROM relationship_edges WHERE id = $1 FOR UPDATE`
		e, err := scanEdge(q.QueryRowContext(txCtx, stmt, uuid.UUID(edgeID)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("lock edge: %w", err)
		}
		if err := validate(e); err != nil {
			return err
		}
		mutate(e)

		cols, vals := groupAssignments(group, e)
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s = $%d", c, i+2)
		}
		update := `UPDATE relationship_edges SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
		if _, err := q.ExecContext(txCtx, update, append([]any{uuid.UUID(edgeID)}, vals...)...); err != nil {
			return fmt.Errorf("update edge: %w", err)
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// groupAssignments returns the columns owned by group and their values, plus the
// shared updated_by/updated_at stamps.
func groupAssignments(group models.FieldGroup, e *models.Edge) ([]string, []any) {
	var cols []string
	var vals []any
	set := func(col string, v any) {
		cols = append(cols, col)
		vals = append(vals, v)
	}
	switch group {
	case models.GroupDetails:
		set("effective_to", nullTime(e.EffectiveTo))
		set("ownership_percentage", nullFloat(e.OwnershipPercentage))
		set("is_primary", e.IsPrimary)
		set("is_reciprocal", e.IsReciprocal)
		set("status", string(e.Status))
		set("notes", e.Notes)
	case models.GroupVerification:
		set("verification_status", string(e.VerificationStatus))
		set("verified_by", nullString(string(e.VerifiedBy)))
		set("verified_at", nullTime(e.VerifiedAt))
		set("verification_method", nullString(e.VerificationMethod))
		set("rejection_reason", nullString(e.RejectionReason))
	case models.GroupRisk:
		set("risk_level", string(e.RiskLevel))
		set("risk_factors", pq.Array(riskFactors(e.RiskFactors)))
		set("is_high_risk", e.IsHighRisk)
		set("is_pep_related", e.IsPEPRelated)
		set("is_sanctions_related", e.IsSanctionsRelated)
		set("requires_edd", e.RequiresEDD)
	case models.GroupEscalation:
		set("is_escalated", e.IsEscalated)
		set("escalated_to", nullString(e.EscalatedTo))
		set("escalation_reason", nullString(e.EscalationReason))
		set("escalated_at", nullTime(e.EscalatedAt))
		set("escalated_by", nullString(string(e.EscalatedBy)))
	case models.GroupReview:
		set("next_review_date", nullTime(e.NextReviewDate))
		set("last_reviewed_date", nullTime(e.LastReviewedDate))
		set("reviewed_by", nullString(string(e.ReviewedBy)))
	case models.GroupDeletion:
		set("deleted_at", nullTime(e.DeletedAt))
		set("deleted_by", nullString(string(e.DeletedBy)))
	}
	set("updated_by", string(e.UpdatedBy))
	set("updated_at", e.UpdatedAt)
	return cols, vals
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEdge(row rowScanner) (*models.Edge, error) {
	var (
		e                                                           models.Edge
		edgeID                                                      uuid.UUID
		kind, primary, related, status, verification, risk, created string
		updated                                                     string
		ownership                                                   sql.NullFloat64
		effectiveTo, verifiedAt, escalatedAt, lastReviewed          sql.NullTime
		nextReview, deletedAt                                       sql.NullTime
		verifiedBy, method, rejection, escalatedTo, escalationWhy   sql.NullString
		escalatedBy, reviewedBy, deletedBy                          sql.NullString
		factors                                                     []string
	)
	err := row.Scan(
		&edgeID, &kind, &primary, &related, &e.RelationshipType,
		&ownership, &e.EffectiveFrom, &effectiveTo, &status, &e.IsPrimary, &e.IsReciprocal, &e.Notes,
		&verification, &verifiedBy, &verifiedAt, &method, &rejection,
		&risk, pq.Array(&factors), &e.IsHighRisk, &e.IsPEPRelated, &e.IsSanctionsRelated, &e.RequiresEDD,
		&e.IsEscalated, &escalatedTo, &escalationWhy, &escalatedAt, &escalatedBy,
		&lastReviewed, &reviewedBy, &nextReview,
		&created, &e.CreatedAt, &updated, &e.UpdatedAt, &deletedAt, &deletedBy,
	)
	if err != nil {
		return nil, err
	}
	e.ID = id.EdgeID(edgeID)
	e.Kind = models.Kind(kind)
	e.PrimaryPartyID = id.PartyID(primary)
	e.RelatedPartyID = id.PartyID(related)
	e.Status = models.Status(status)
	e.VerificationStatus = models.VerificationStatus(verification)
	e.RiskLevel = models.RiskLevel(risk)
	e.RiskFactors = riskFactors(factors)
	e.CreatedBy = id.ActorID(created)
	e.UpdatedBy = id.ActorID(updated)

	if ownership.Valid {
		e.OwnershipPercentage = &ownership.Float64
	}
	e.EffectiveTo = timePtr(effectiveTo)
	e.VerifiedAt = timePtr(verifiedAt)
	e.EscalatedAt = timePtr(escalatedAt)
	e.LastReviewedDate = timePtr(lastReviewed)
	e.NextReviewDate = timePtr(nextReview)
	e.DeletedAt = timePtr(deletedAt)

	e.VerifiedBy = id.ActorID(verifiedBy.String)
	e.VerificationMethod = method.String
	e.RejectionReason = rejection.String
	e.EscalatedTo = escalatedTo.String
	e.EscalationReason = escalationWhy.String
	e.EscalatedBy = id.ActorID(escalatedBy.String)
	e.ReviewedBy = id.ActorID(reviewedBy.String)
	e.DeletedBy = id.ActorID(deletedBy.String)
	return &e, nil
}

func riskFactors(f []string) []string {
	if f == nil {
		return []string{}
	}
	return f
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
