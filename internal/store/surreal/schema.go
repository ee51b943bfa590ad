package surreal

// schemaSQL contains the schema initialization SurrealQL. The %[1]d verb is
// the HNSW index dimension.
const schemaSQL = `
    -- ==========================================================================
    -- DOCUMENT SEGMENTS (one row per extracted PDF/presentation page)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS document_segment SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS text ON document_segment TYPE string;
    DEFINE FIELD IF NOT EXISTS media_record ON document_segment TYPE string;
    DEFINE FIELD IF NOT EXISTS page ON document_segment TYPE int;
    DEFINE FIELD IF NOT EXISTS embedding ON document_segment TYPE array<float>;

    DEFINE INDEX IF NOT EXISTS document_segment_media_record ON document_segment FIELDS media_record;
    DEFINE INDEX IF NOT EXISTS document_segment_embedding ON document_segment FIELDS embedding HNSW DIMENSION %[1]d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- VIDEO SEGMENTS (one row per detected video time-window)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS video_segment SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS screen_text ON video_segment TYPE string;
    DEFINE FIELD IF NOT EXISTS transcript ON video_segment TYPE string;
    DEFINE FIELD IF NOT EXISTS media_record ON video_segment TYPE string;
    DEFINE FIELD IF NOT EXISTS start_time ON video_segment TYPE int;
    DEFINE FIELD IF NOT EXISTS embedding ON video_segment TYPE array<float>;

    DEFINE INDEX IF NOT EXISTS video_segment_media_record ON video_segment FIELDS media_record;
    DEFINE INDEX IF NOT EXISTS video_segment_embedding ON video_segment FIELDS embedding HNSW DIMENSION %[1]d DIST COSINE TYPE F32;

    -- ==========================================================================
    -- CROSS-CONTENT LINKS (undirected segment pairs under a content grouping)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS media_record_link SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS content_id ON media_record_link TYPE string;
    DEFINE FIELD IF NOT EXISTS segment1_id ON media_record_link TYPE string;
    DEFINE FIELD IF NOT EXISTS segment2_id ON media_record_link TYPE string;

    DEFINE INDEX IF NOT EXISTS media_record_link_content ON media_record_link FIELDS content_id;
    DEFINE INDEX IF NOT EXISTS media_record_link_segment1 ON media_record_link FIELDS segment1_id;
    DEFINE INDEX IF NOT EXISTS media_record_link_segment2 ON media_record_link FIELDS segment2_id;
`
