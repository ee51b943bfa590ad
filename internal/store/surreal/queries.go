package surreal

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/MEITREX/docprocai-fileingestlib/internal/models"
	"github.com/MEITREX/docprocai-fileingestlib/internal/store"
)

var _ store.Store = (*Store)(nil)

// knnEF is the HNSW search effort parameter used by nearest-neighbor queries.
const knnEF = 40

// documentRow is the scan target for document_segment queries.
type documentRow struct {
	ID          surrealmodels.RecordID `json:"id"`
	Text        string                 `json:"text"`
	MediaRecord string                 `json:"media_record"`
	Page        int                    `json:"page"`
	Embedding   []float32              `json:"embedding"`
	Score       float64                `json:"score,omitempty"`
}

// videoRow is the scan target for video_segment queries.
type videoRow struct {
	ID          surrealmodels.RecordID `json:"id"`
	ScreenText  string                 `json:"screen_text"`
	Transcript  string                 `json:"transcript"`
	MediaRecord string                 `json:"media_record"`
	StartTime   int                    `json:"start_time"`
	Embedding   []float32              `json:"embedding"`
	Score       float64                `json:"score,omitempty"`
}

// linkRow is the scan target for media_record_link queries.
type linkRow struct {
	ContentID  string `json:"content_id"`
	Segment1ID string `json:"segment1_id"`
	Segment2ID string `json:"segment2_id"`
}

// InsertDocumentSegments implements store.Store.
func (s *Store) InsertDocumentSegments(ctx context.Context, segments []models.DocumentSegment) error {
	for _, seg := range segments {
		_, err := surrealdb.Query[any](ctx, s.db, `
			CREATE type::record("document_segment", $id) SET
				text = $text,
				media_record = $media_record,
				page = $page,
				embedding = $embedding
		`, map[string]any{
			"id":           seg.ID.String(),
			"text":         seg.Text,
			"media_record": seg.MediaRecord.String(),
			"page":         seg.Page,
			"embedding":    seg.Embedding,
		})
		if err != nil {
			return fmt.Errorf("insert document segment: %w", err)
		}
	}
	return nil
}

// InsertVideoSegments implements store.Store.
func (s *Store) InsertVideoSegments(ctx context.Context, segments []models.VideoSegment) error {
	for _, seg := range segments {
		_, err := surrealdb.Query[any](ctx, s.db, `
			CREATE type::record("video_segment", $id) SET
				screen_text = $screen_text,
				transcript = $transcript,
				media_record = $media_record,
				start_time = $start_time,
				embedding = $embedding
		`, map[string]any{
			"id":           seg.ID.String(),
			"screen_text":  seg.ScreenText,
			"transcript":   seg.Transcript,
			"media_record": seg.MediaRecord.String(),
			"start_time":   seg.StartTime,
			"embedding":    seg.Embedding,
		})
		if err != nil {
			return fmt.Errorf("insert video segment: %w", err)
		}
	}
	return nil
}

// SegmentsByMediaRecords implements store.Store.
func (s *Store) SegmentsByMediaRecords(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	return s.querySegments(ctx, "WHERE media_record IN $ids", map[string]any{"ids": uuidStrings(ids)})
}

// SegmentsByIDs implements store.Store.
func (s *Store) SegmentsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	return s.querySegments(ctx, "WHERE record::id(id) IN $ids", map[string]any{"ids": uuidStrings(ids)})
}

// querySegments runs the same filter against both segment tables and merges
// the results.
func (s *Store) querySegments(ctx context.Context, where string, vars map[string]any) ([]models.Segment, error) {
	docResults, err := surrealdb.Query[[]documentRow](ctx, s.db,
		"SELECT * FROM document_segment "+where, vars)
	if err != nil {
		return nil, fmt.Errorf("query document segments: %w", err)
	}
	videoResults, err := surrealdb.Query[[]videoRow](ctx, s.db,
		"SELECT * FROM video_segment "+where, vars)
	if err != nil {
		return nil, fmt.Errorf("query video segments: %w", err)
	}

	var segments []models.Segment
	if docResults != nil && len(*docResults) > 0 {
		for _, row := range (*docResults)[0].Result {
			seg, err := row.toSegment()
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		}
	}
	if videoResults != nil && len(*videoResults) > 0 {
		for _, row := range (*videoResults)[0].Result {
			seg, err := row.toSegment()
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		}
	}
	return segments, nil
}

// NearestSegments implements store.Store. Each segment table is queried with
// the HNSW KNN operator; the two ranked lists are merged by score in Go.
func (s *Store) NearestSegments(ctx context.Context, embedding []float32, count int, whitelist, blacklist []uuid.UUID) ([]models.ScoredSegment, error) {
	if count <= 0 || len(whitelist) == 0 {
		return nil, nil
	}

	vars := map[string]any{
		"emb":       embedding,
		"whitelist": uuidStrings(whitelist),
		"blacklist": uuidStrings(blacklist),
	}

	// KNN candidate counts must be literals in SurrealQL
	docSQL := fmt.Sprintf(`
		SELECT *, vector::distance::knn() AS score FROM document_segment
		WHERE embedding <|%d,%d|> $emb
			AND media_record IN $whitelist
			AND media_record NOT IN $blacklist
	`, count, knnEF)
	videoSQL := fmt.Sprintf(`
		SELECT *, vector::distance::knn() AS score FROM video_segment
		WHERE embedding <|%d,%d|> $emb
			AND media_record IN $whitelist
			AND media_record NOT IN $blacklist
	`, count, knnEF)

	docResults, err := surrealdb.Query[[]documentRow](ctx, s.db, docSQL, vars)
	if err != nil {
		return nil, fmt.Errorf("document knn: %w", err)
	}
	videoResults, err := surrealdb.Query[[]videoRow](ctx, s.db, videoSQL, vars)
	if err != nil {
		return nil, fmt.Errorf("video knn: %w", err)
	}

	var scored []models.ScoredSegment
	if docResults != nil && len(*docResults) > 0 {
		for _, row := range (*docResults)[0].Result {
			seg, err := row.toSegment()
			if err != nil {
				return nil, err
			}
			scored = append(scored, models.ScoredSegment{Score: row.Score, Segment: seg})
		}
	}
	if videoResults != nil && len(*videoResults) > 0 {
		for _, row := range (*videoResults)[0].Result {
			seg, err := row.toSegment()
			if err != nil {
				return nil, err
			}
			scored = append(scored, models.ScoredSegment{Score: row.Score, Segment: seg})
		}
	}

	slices.SortStableFunc(scored, func(a, b models.ScoredSegment) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(scored) > count {
		scored = scored[:count]
	}
	return scored, nil
}

// InsertLink implements store.Store.
func (s *Store) InsertLink(ctx context.Context, link models.Link) error {
	_, err := surrealdb.Query[any](ctx, s.db, `
		CREATE media_record_link SET
			content_id = $content_id,
			segment1_id = $segment1_id,
			segment2_id = $segment2_id
	`, map[string]any{
		"content_id":  link.ContentID.String(),
		"segment1_id": link.Segment1ID.String(),
		"segment2_id": link.Segment2ID.String(),
	})
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// LinkExists implements store.Store. The check is undirected.
func (s *Store) LinkExists(ctx context.Context, segment1ID, segment2ID uuid.UUID) (bool, error) {
	results, err := surrealdb.Query[[]linkRow](ctx, s.db, `
		SELECT * FROM media_record_link
		WHERE (segment1_id = $id1 AND segment2_id = $id2)
			OR (segment1_id = $id2 AND segment2_id = $id1)
		LIMIT 1
	`, map[string]any{
		"id1": segment1ID.String(),
		"id2": segment2ID.String(),
	})
	if err != nil {
		return false, fmt.Errorf("link exists: %w", err)
	}

	return results != nil && len(*results) > 0 && len((*results)[0].Result) > 0, nil
}

// LinksByContent implements store.Store.
func (s *Store) LinksByContent(ctx context.Context, contentID uuid.UUID) ([]models.Link, error) {
	results, err := surrealdb.Query[[]linkRow](ctx, s.db, `
		SELECT * FROM media_record_link WHERE content_id = $content_id
	`, map[string]any{"content_id": contentID.String()})
	if err != nil {
		return nil, fmt.Errorf("links by content: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	links := make([]models.Link, 0, len((*results)[0].Result))
	for _, row := range (*results)[0].Result {
		id1, err := uuid.Parse(row.Segment1ID)
		if err != nil {
			return nil, fmt.Errorf("parse link segment id: %w", err)
		}
		id2, err := uuid.Parse(row.Segment2ID)
		if err != nil {
			return nil, fmt.Errorf("parse link segment id: %w", err)
		}
		links = append(links, models.Link{ContentID: contentID, Segment1ID: id1, Segment2ID: id2})
	}
	return links, nil
}

// DeleteMediaRecord implements store.Store. Links referencing any of the
// record's segments are removed before the segments themselves.
func (s *Store) DeleteMediaRecord(ctx context.Context, mediaRecordID uuid.UUID) error {
	_, err := surrealdb.Query[any](ctx, s.db, `
		LET $doomed = array::union(
			(SELECT VALUE record::id(id) FROM document_segment WHERE media_record = $media_record),
			(SELECT VALUE record::id(id) FROM video_segment WHERE media_record = $media_record)
		);
		DELETE media_record_link WHERE segment1_id IN $doomed OR segment2_id IN $doomed;
		DELETE document_segment WHERE media_record = $media_record;
		DELETE video_segment WHERE media_record = $media_record;
	`, map[string]any{"media_record": mediaRecordID.String()})
	if err != nil {
		return fmt.Errorf("delete media record entries: %w", err)
	}
	return nil
}

func (r documentRow) toSegment() (models.DocumentSegment, error) {
	id, err := recordUUID(r.ID)
	if err != nil {
		return models.DocumentSegment{}, err
	}
	record, err := uuid.Parse(r.MediaRecord)
	if err != nil {
		return models.DocumentSegment{}, fmt.Errorf("parse media record id: %w", err)
	}
	return models.DocumentSegment{
		ID:          id,
		Text:        r.Text,
		MediaRecord: record,
		Page:        r.Page,
		Embedding:   r.Embedding,
	}, nil
}

func (r videoRow) toSegment() (models.VideoSegment, error) {
	id, err := recordUUID(r.ID)
	if err != nil {
		return models.VideoSegment{}, err
	}
	record, err := uuid.Parse(r.MediaRecord)
	if err != nil {
		return models.VideoSegment{}, fmt.Errorf("parse media record id: %w", err)
	}
	return models.VideoSegment{
		ID:          id,
		ScreenText:  r.ScreenText,
		Transcript:  r.Transcript,
		MediaRecord: record,
		StartTime:   r.StartTime,
		Embedding:   r.Embedding,
	}, nil
}

// recordUUID extracts the uuid from a record ID whose id part is the uuid
// string the segment was created with.
func recordUUID(id surrealmodels.RecordID) (uuid.UUID, error) {
	s, ok := id.ID.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected record ID type: %T (expected string)", id.ID)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse record uuid: %w", err)
	}
	return parsed, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
