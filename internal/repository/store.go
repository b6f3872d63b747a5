package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"concierge/internal/model"
	"concierge/internal/utils"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// ErrChatNotFound is returned when feedback names an unknown chat
var ErrChatNotFound = errors.New("chat not found")

// keywordFields are the columns a keyword may match
var keywordFields = []string{"name", "description", "vibe_tags"}

const amenityColumns = `
	id, amenity_slug, name, description, terminal_code, airport_code,
	vibe_tags, category, opening_hours, price_level, available_in_tr,
	gate_location, zone, walking_time_minutes, image_url`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// AmenityQuery is one filtered read against amenity_detail
type AmenityQuery struct {
	AirportCode  string
	TerminalCode string   // optional exact match
	TransitOnly  bool     // require available_in_tr
	Keywords     []string // optional; any keyword in any keyword field
	Limit        int
}

// Store handles amenity and chat log persistence on Postgres or SQLite
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens a store for driver ("postgres" or "sqlite")
func NewStore(driver, dsn string, maxConn, maxIdleConn int) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// one writer; concurrent readers queue behind busy_timeout
		maxConn, maxIdleConn = 1, 1
	}
	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the tables this service reads and writes if they are missing
func (s *Store) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.driver == "sqlite" {
		schema = sqliteSchema
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// SearchAmenities runs a filtered amenity search
func (s *Store) SearchAmenities(ctx context.Context, q AmenityQuery) ([]model.Amenity, error) {
	whereClauses := []string{"airport_code = ?"}
	args := []interface{}{q.AirportCode}

	if q.TerminalCode != "" {
		whereClauses = append(whereClauses, "terminal_code = ?")
		args = append(args, q.TerminalCode)
	}
	if q.TransitOnly {
		whereClauses = append(whereClauses, "available_in_tr = ?")
		args = append(args, true)
	}
	if clause, params := utils.BuildKeywordMatchClause(q.Keywords, keywordFields); clause != "" {
		whereClauses = append(whereClauses, clause)
		args = append(args, params...)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 30
	}
	args = append(args, limit)

	query := s.db.Rebind(fmt.Sprintf(`
		SELECT %s
		FROM amenity_detail
		WHERE %s
		ORDER BY id
		LIMIT ?
	`, amenityColumns, strings.Join(whereClauses, " AND ")))

	amenities := []model.Amenity{}
	if err := s.db.SelectContext(ctx, &amenities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch amenities: %w", err)
	}

	return amenities, nil
}

// GetAmenityBySlug retrieves a single amenity, or nil when it does not exist
func (s *Store) GetAmenityBySlug(ctx context.Context, slug string) (*model.Amenity, error) {
	var amenity model.Amenity
	query := s.db.Rebind(fmt.Sprintf(`SELECT %s FROM amenity_detail WHERE amenity_slug = ?`, amenityColumns))
	err := s.db.GetContext(ctx, &amenity, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get amenity: %w", err)
	}
	return &amenity, nil
}

// InsertAmenity adds an amenity record; used by local seeding and tests
func (s *Store) InsertAmenity(ctx context.Context, a *model.Amenity) error {
	query := s.db.Rebind(`
		INSERT INTO amenity_detail (
			amenity_slug, name, description, terminal_code, airport_code,
			vibe_tags, category, opening_hours, price_level, available_in_tr,
			gate_location, zone, walking_time_minutes, image_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		a.Slug, a.Name, a.Description, a.TerminalCode, a.AirportCode,
		a.VibeTags, a.Category, a.OpeningHours, a.PriceLevel, a.AvailableInTransit,
		a.GateLocation, a.Zone, a.WalkingTimeMinutes, a.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert amenity %s: %w", a.Slug, err)
	}
	return nil
}

// ChatLog is one answered chat, kept for feedback attribution
type ChatLog struct {
	ChatID           string    `db:"chat_id"`
	Query            string    `db:"query"`
	TerminalCode     *string   `db:"terminal_code"`
	IsTransit        bool      `db:"is_transit"`
	Keywords         JSONArray `db:"keywords"`
	RecommendedSlugs JSONArray `db:"recommended_slugs"`
	TotalResults     int       `db:"total_results"`
	Degraded         bool      `db:"degraded"`
	ResponseTimeMs   int       `db:"response_time_ms"`
	ClickedSlug      *string   `db:"clicked_slug"`
	Action           *string   `db:"action"`
}

// LogChat records an answered chat
func (s *Store) LogChat(ctx context.Context, entry *ChatLog) error {
	query := s.db.Rebind(`
		INSERT INTO chat_logs (
			chat_id, query, terminal_code, is_transit, keywords,
			recommended_slugs, total_results, degraded, response_time_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		entry.ChatID, entry.Query, entry.TerminalCode, entry.IsTransit, entry.Keywords,
		entry.RecommendedSlugs, entry.TotalResults, entry.Degraded, entry.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log chat: %w", err)
	}
	return nil
}

// GetChatLog loads a chat log entry
func (s *Store) GetChatLog(ctx context.Context, chatID string) (*ChatLog, error) {
	var entry ChatLog
	query := s.db.Rebind(`
		SELECT chat_id, query, terminal_code, is_transit, keywords, recommended_slugs,
		       total_results, degraded, response_time_ms, clicked_slug, action
		FROM chat_logs WHERE chat_id = ?
	`)
	if err := s.db.GetContext(ctx, &entry, query, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat log: %w", err)
	}
	return &entry, nil
}

// LogFeedback attaches a user action to a logged chat
func (s *Store) LogFeedback(ctx context.Context, chatID, amenitySlug, action string) error {
	query := s.db.Rebind(`
		UPDATE chat_logs
		SET clicked_slug = ?, action = ?
		WHERE chat_id = ?
	`)
	res, err := s.db.ExecContext(ctx, query, amenitySlug, action, chatID)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrChatNotFound
	}
	return nil
}
