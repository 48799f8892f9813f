package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	appErrors "github.com/unclebandit/campaign-directory/internal/errors"
	"github.com/unclebandit/campaign-directory/internal/model"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	campaignsTable = "campaigns"
)

var campaignColumns = []string{"campaign_id", "name", "due_date", "created_at"}

// CampaignRepository is the SQL-backed CampaignStore.
type CampaignRepository struct {
	DB      *sql.DB
	Dialect string
}

func NewCampaignRepository(db *sql.DB, dialect string) *CampaignRepository {
	return &CampaignRepository{DB: db, Dialect: dialect}
}

func (r *CampaignRepository) builder() sq.StatementBuilderType {
	if r.Dialect == DialectSQLite {
		return sq.StatementBuilder.PlaceholderFormat(sq.Question)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Acquire checks a dedicated connection out of the pool for the lifetime of the session.
func (r *CampaignRepository) Acquire(ctx context.Context) (CampaignSession, error) {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &sqlSession{conn: conn, sb: r.builder()}, nil
}

func (r *CampaignRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

type sqlSession struct {
	conn *sql.Conn
	sb   sq.StatementBuilderType
}

func (s *sqlSession) List(ctx context.Context) ([]*model.Campaign, error) {
	query, args, err := s.sb.Select(campaignColumns...).
		From(campaignsTable).
		OrderBy("campaign_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *sqlSession) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	query, args, err := s.sb.Select(campaignColumns...).
		From(campaignsTable).
		Where(sq.Eq{"campaign_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	c, err := scanCampaign(s.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, fmt.Errorf("get campaign %d: %w", id, err)
	}
	return c, nil
}

func (s *sqlSession) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	due := nullTime(c.DueDate)

	query, args, err := s.sb.Insert(campaignsTable).
		Columns("name", "due_date", "created_at").
		Values(c.Name, due, c.CreatedAt).
		Suffix("RETURNING campaign_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewCampaignNameTaken(c.Name)
		}
		return fmt.Errorf("create campaign: %w", err)
	}
	c.DueDate = nil
	if due.Valid {
		c.DueDate = &due.Time
	}
	return nil
}

func (s *sqlSession) Update(ctx context.Context, c *model.Campaign) error {
	query, args, err := s.sb.Update(campaignsTable).
		Set("name", c.Name).
		Set("due_date", nullTime(c.DueDate)).
		Where(sq.Eq{"campaign_id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.NewCampaignNameTaken(c.Name)
		}
		return fmt.Errorf("update campaign %d: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign %d: %w", c.ID, err)
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}

	// created_at is owned by the store, so read the row back.
	stored, err := s.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

func (s *sqlSession) Delete(ctx context.Context, id int64) error {
	query, args, err := s.sb.Delete(campaignsTable).
		Where(sq.Eq{"campaign_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete campaign %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete campaign %d: %w", id, err)
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (s *sqlSession) Count(ctx context.Context) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From(campaignsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return total, nil
}

func (s *sqlSession) Close() error {
	return s.conn.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var (
		c   model.Campaign
		due sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Name, &due, &c.CreatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t := due.Time
		c.DueDate = &t
	}
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC().Truncate(time.Microsecond), Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

var _ CampaignStore = (*CampaignRepository)(nil)
