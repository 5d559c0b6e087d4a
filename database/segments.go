package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	loadSql "github.com/siherrmann/usreport/sql"
)

// SegmentsDBHandlerFunctions defines the interface for segment database operations.
type SegmentsDBHandlerFunctions interface {
	InsertSegments(ctx context.Context, indexRID uuid.UUID, segments []*model.DocumentSegment, embeddings [][]float32) error
	SelectSegmentsBySimilarity(ctx context.Context, indexRID uuid.UUID, embedding []float32, limit int) ([]*model.DocumentSegment, error)
	DeleteIndex(ctx context.Context, indexRID uuid.UUID) (int, error)
	CountIndex(ctx context.Context, indexRID uuid.UUID) (int, error)
}

// SegmentsDBHandler handles segment-related database operations.
// Rows are grouped by an index RID, one per built retrieval index.
type SegmentsDBHandler struct {
	db *helper.Database
}

// NewSegmentsDBHandler creates a new segments database handler.
// It loads the segment SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSegmentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*SegmentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	segmentsDbHandler := &SegmentsDBHandler{
		db: db,
	}

	err := loadSql.Init(segmentsDbHandler.db.Instance)
	if err != nil {
		return nil, helper.NewError("init extensions", err)
	}

	err = loadSql.LoadSegmentsSql(segmentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load segments sql", err)
	}

	err = segmentsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SegmentsDBHandler")

	return segmentsDbHandler, nil
}

// CreateTable creates the 'segments' table in the database.
// If the table already exists, it does not create it again.
func (h *SegmentsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_segments($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("init segments", err)
	}

	h.db.Logger.Info("Checked/created table segments")

	return nil
}

// InsertSegments stores all segments of one index in a single transaction.
// embeddings[i] belongs to segments[i].
func (h *SegmentsDBHandler) InsertSegments(ctx context.Context, indexRID uuid.UUID, segments []*model.DocumentSegment, embeddings [][]float32) error {
	if len(segments) != len(embeddings) {
		return helper.NewError("insert segments", fmt.Errorf("got %d embeddings for %d segments", len(embeddings), len(segments)))
	}

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `SELECT insert_segment($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return helper.NewError("prepare insert", err)
	}
	defer stmt.Close()

	for i, segment := range segments {
		var id int
		err := stmt.QueryRowContext(
			ctx,
			indexRID,
			segment.ID,
			string(segment.Organ),
			segment.Source,
			segment.Content,
			segment.Headers,
			segment.Index,
			pgvector.NewVector(embeddings[i]),
		).Scan(&id)
		if err != nil {
			return helper.NewError(fmt.Sprintf("insert segment %d", i), err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectSegmentsBySimilarity returns the limit segments of the index closest to the embedding
// by cosine distance. Ties are broken by position in the source file.
func (h *SegmentsDBHandler) SelectSegmentsBySimilarity(ctx context.Context, indexRID uuid.UUID, embedding []float32, limit int) ([]*model.DocumentSegment, error) {
	if limit <= 0 {
		return nil, helper.NewError("select segments", fmt.Errorf("limit must be positive, got %d", limit))
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_segments_by_similarity($1, $2, $3)`,
		indexRID,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var segments []*model.DocumentSegment
	for rows.Next() {
		segment, err := scanSegment(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		segments = append(segments, segment)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return segments, nil
}

// DeleteIndex removes every segment of the index and returns the number of deleted rows
func (h *SegmentsDBHandler) DeleteIndex(ctx context.Context, indexRID uuid.UUID) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_segments_by_index($1)`, indexRID).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("delete index", err)
	}
	return deleted, nil
}

// CountIndex returns the number of segments stored for the index
func (h *SegmentsDBHandler) CountIndex(ctx context.Context, indexRID uuid.UUID) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_segments_by_index($1)`, indexRID).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count index", err)
	}
	return count, nil
}

func scanSegment(rows *sql.Rows) (*model.DocumentSegment, error) {
	segment := &model.DocumentSegment{}
	var organ string
	err := rows.Scan(
		&segment.ID,
		&organ,
		&segment.Source,
		&segment.Content,
		&segment.Headers,
		&segment.Index,
		&segment.Similarity,
	)
	if err != nil {
		return nil, err
	}
	segment.Organ = model.Organ(organ)
	return segment, nil
}
