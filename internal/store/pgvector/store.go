// Package pgvector implements the store boundary on Postgres with the
// pgvector extension. Nearest-neighbor ordering uses the cosine distance
// operator; links live in a plain relational table.
package pgvector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store"
)

// Store wraps a pgx connection pool with pgvector types registered.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New connects to Postgres and registers pgvector types on every connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	slog.Info("postgres connection established")
	return &Store{pool: pool}, nil
}

// InitSchema ensures the pgvector extension and all tables exist. The
// dimension must match the embedding model in use.
func (s *Store) InitSchema(ctx context.Context, dimension int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			id uuid PRIMARY KEY,
			text text,
			media_record uuid,
			page int,
			embedding vector(%d)
		)`, dimension),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS videos (
			id uuid PRIMARY KEY,
			screen_text text,
			transcript text,
			media_record uuid,
			start_time int,
			embedding vector(%d)
		)`, dimension),
		`CREATE TABLE IF NOT EXISTS media_record_links (
			content_id uuid,
			segment1_id uuid,
			segment2_id uuid
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// InsertDocumentSegments implements store.Store.
func (s *Store) InsertDocumentSegments(ctx context.Context, segments []models.DocumentSegment) error {
	for _, seg := range segments {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO documents (id, text, media_record, page, embedding) VALUES ($1, $2, $3, $4, $5)`,
			seg.ID.String(), seg.Text, seg.MediaRecord.String(), seg.Page, pgvec.NewVector(seg.Embedding))
		if err != nil {
			return fmt.Errorf("insert document segment: %w", err)
		}
	}
	return nil
}

// InsertVideoSegments implements store.Store.
func (s *Store) InsertVideoSegments(ctx context.Context, segments []models.VideoSegment) error {
	for _, seg := range segments {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO videos (id, screen_text, transcript, media_record, start_time, embedding) VALUES ($1, $2, $3, $4, $5, $6)`,
			seg.ID.String(), seg.ScreenText, seg.Transcript, seg.MediaRecord.String(), seg.StartTime, pgvec.NewVector(seg.Embedding))
		if err != nil {
			return fmt.Errorf("insert video segment: %w", err)
		}
	}
	return nil
}

// segmentColumns is the normalized column set shared by the union queries.
// Columns irrelevant to one shape are NULL-padded so both branches line up.
const segmentColumns = `
	WITH document_results AS (
		SELECT
			id::text,
			media_record::text AS media_record,
			'document' AS source,
			page,
			NULL::integer AS start_time,
			text,
			NULL::text AS screen_text,
			NULL::text AS transcript,
			embedding
		FROM documents
		%[1]s
	),
	video_results AS (
		SELECT
			id::text,
			media_record::text AS media_record,
			'video' AS source,
			NULL::integer AS page,
			start_time,
			NULL::text AS text,
			screen_text,
			transcript,
			embedding
		FROM videos
		%[1]s
	),
	results AS (
		SELECT * FROM document_results
		UNION ALL
		SELECT * FROM video_results
	)`

// SegmentsByMediaRecords implements store.Store.
func (s *Store) SegmentsByMediaRecords(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	sql := fmt.Sprintf(segmentColumns, `WHERE media_record = ANY($1::uuid[])`) +
		` SELECT * FROM results`

	rows, err := s.pool.Query(ctx, sql, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("segments by media records: %w", err)
	}
	defer rows.Close()

	return scanSegments(rows)
}

// SegmentsByIDs implements store.Store.
func (s *Store) SegmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	sql := fmt.Sprintf(segmentColumns, `WHERE id = ANY($1::uuid[])`) +
		` SELECT * FROM results`

	rows, err := s.pool.Query(ctx, sql, uuidStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("segments by ids: %w", err)
	}
	defer rows.Close()

	return scanSegments(rows)
}

// NearestSegments implements store.Store. Cosine distance ascending; an
// empty whitelist matches nothing by ANY() semantics.
func (s *Store) NearestSegments(ctx context.Context, embedding []float32, count int, whitelist, blacklist []uuid.UUID) ([]models.ScoredSegment, error) {
	sql := `
		WITH document_results AS (
			SELECT
				id::text,
				media_record::text AS media_record,
				'document' AS source,
				page,
				NULL::integer AS start_time,
				text,
				NULL::text AS screen_text,
				NULL::text AS transcript,
				embedding,
				embedding <=> $1 AS score
			FROM documents
			WHERE media_record = ANY($2::uuid[]) AND NOT media_record = ANY($3::uuid[])
		),
		video_results AS (
			SELECT
				id::text,
				media_record::text AS media_record,
				'video' AS source,
				NULL::integer AS page,
				start_time,
				NULL::text AS text,
				screen_text,
				transcript,
				embedding,
				embedding <=> $1 AS score
			FROM videos
			WHERE media_record = ANY($2::uuid[]) AND NOT media_record = ANY($3::uuid[])
		),
		results AS (
			SELECT * FROM document_results
			UNION ALL
			SELECT * FROM video_results
		)
		SELECT * FROM results ORDER BY score LIMIT $4`

	rows, err := s.pool.Query(ctx, sql,
		pgvec.NewVector(embedding), uuidStrings(whitelist), uuidStrings(blacklist), count)
	if err != nil {
		return nil, fmt.Errorf("nearest segments: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredSegment
	for rows.Next() {
		var raw segmentRow
		var score float64
		if err := rows.Scan(&raw.id, &raw.mediaRecord, &raw.source, &raw.page, &raw.startTime,
			&raw.text, &raw.screenText, &raw.transcript, &raw.embedding, &score); err != nil {
			return nil, fmt.Errorf("scan scored segment: %w", err)
		}
		seg, err := raw.toSegment()
		if err != nil {
			return nil, err
		}
		results = append(results, models.ScoredSegment{Score: score, Segment: seg})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearest segments: %w", err)
	}
	return results, nil
}

// InsertLink implements store.Store.
func (s *Store) InsertLink(ctx context.Context, link models.Link) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO media_record_links (content_id, segment1_id, segment2_id) VALUES ($1, $2, $3)`,
		link.ContentID.String(), link.Segment1ID.String(), link.Segment2ID.String())
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// LinkExists implements store.Store. The check is undirected.
func (s *Store) LinkExists(ctx context.Context, segment1ID, segment2ID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM media_record_links
			WHERE (segment1_id = $1 AND segment2_id = $2)
				OR (segment1_id = $2 AND segment2_id = $1)
		)`, segment1ID.String(), segment2ID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("link exists: %w", err)
	}
	return exists, nil
}

// LinksByContent implements store.Store.
func (s *Store) LinksByContent(ctx context.Context, contentID uuid.UUID) ([]models.Link, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT segment1_id::text, segment2_id::text
		FROM media_record_links WHERE content_id = $1`, contentID.String())
	if err != nil {
		return nil, fmt.Errorf("links by content: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var seg1, seg2 string
		if err := rows.Scan(&seg1, &seg2); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		id1, err := uuid.Parse(seg1)
		if err != nil {
			return nil, fmt.Errorf("parse link segment id: %w", err)
		}
		id2, err := uuid.Parse(seg2)
		if err != nil {
			return nil, fmt.Errorf("parse link segment id: %w", err)
		}
		links = append(links, models.Link{ContentID: contentID, Segment1ID: id1, Segment2ID: id2})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("links by content: %w", err)
	}
	return links, nil
}

// DeleteMediaRecord implements store.Store. Links referencing any of the
// record's segments are removed first.
func (s *Store) DeleteMediaRecord(ctx context.Context, mediaRecordID uuid.UUID) error {
	id := mediaRecordID.String()

	_, err := s.pool.Exec(ctx, `
		WITH doomed AS (
			SELECT id FROM documents WHERE media_record = $1
			UNION ALL
			SELECT id FROM videos WHERE media_record = $1
		)
		DELETE FROM media_record_links
		WHERE segment1_id IN (SELECT id FROM doomed)
			OR segment2_id IN (SELECT id FROM doomed)`, id)
	if err != nil {
		return fmt.Errorf("delete links: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE media_record = $1`, id); err != nil {
		return fmt.Errorf("delete document segments: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM videos WHERE media_record = $1`, id); err != nil {
		return fmt.Errorf("delete video segments: %w", err)
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// segmentRow is the scan target for the normalized union queries.
type segmentRow struct {
	id          string
	mediaRecord string
	source      string
	page        *int
	startTime   *int
	text        *string
	screenText  *string
	transcript  *string
	embedding   pgvec.Vector
}

func (r segmentRow) toSegment() (models.Segment, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return nil, fmt.Errorf("parse segment id: %w", err)
	}
	record, err := uuid.Parse(r.mediaRecord)
	if err != nil {
		return nil, fmt.Errorf("parse media record id: %w", err)
	}

	switch r.source {
	case "document":
		seg := models.DocumentSegment{ID: id, MediaRecord: record, Embedding: r.embedding.Slice()}
		if r.text != nil {
			seg.Text = *r.text
		}
		if r.page != nil {
			seg.Page = *r.page
		}
		return seg, nil
	case "video":
		seg := models.VideoSegment{ID: id, MediaRecord: record, Embedding: r.embedding.Slice()}
		if r.screenText != nil {
			seg.ScreenText = *r.screenText
		}
		if r.transcript != nil {
			seg.Transcript = *r.transcript
		}
		if r.startTime != nil {
			seg.StartTime = *r.startTime
		}
		return seg, nil
	default:
		return nil, fmt.Errorf("unknown segment source %q", r.source)
	}
}

func scanSegments(rows pgx.Rows) ([]models.Segment, error) {
	var segments []models.Segment
	for rows.Next() {
		var raw segmentRow
		if err := rows.Scan(&raw.id, &raw.mediaRecord, &raw.source, &raw.page, &raw.startTime,
			&raw.text, &raw.screenText, &raw.transcript, &raw.embedding); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		seg, err := raw.toSegment()
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	return segments, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
