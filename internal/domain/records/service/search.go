package service

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"

	"github.com/thequantifier/quantifier/internal/domain/records/repository"
)

// recordDocument is the searchable projection of a record.
type recordDocument struct {
	UserID   string `json:"user_id"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Note     string `json:"note"`
}

// SearchHit pairs a record ID with its relevance score.
type SearchHit struct {
	RecordID uuid.UUID
	Score    float64
}

// SearchIndex provides full-text search over record categories and notes
// using an in-memory Bleve index. It is rebuilt from the database on
// startup and kept current by the service on every write.
type SearchIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewSearchIndex creates an empty in-memory index.
func NewSearchIndex() (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &SearchIndex{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("user_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("type", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("category", textFieldMapping)
	docMapping.AddFieldMappingsAt("note", textFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = simple.Name
	return indexMapping
}

// IndexRecord adds or replaces a record in the index.
func (si *SearchIndex) IndexRecord(record *repository.Record) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	doc := recordDocument{
		UserID:   record.UserID.String(),
		Type:     string(record.Type),
		Category: record.Category,
		Note:     record.Note,
	}
	if err := si.index.Index(record.ID.String(), doc); err != nil {
		return fmt.Errorf("failed to index record %s: %w", record.ID, err)
	}
	return nil
}

// IndexAll batch-indexes records, used for the startup rebuild.
func (si *SearchIndex) IndexAll(records []*repository.Record) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	batch := si.index.NewBatch()
	for _, record := range records {
		doc := recordDocument{
			UserID:   record.UserID.String(),
			Type:     string(record.Type),
			Category: record.Category,
			Note:     record.Note,
		}
		if err := batch.Index(record.ID.String(), doc); err != nil {
			return fmt.Errorf("failed to index record %s: %w", record.ID, err)
		}
	}
	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// DeleteRecord removes a record from the index.
func (si *SearchIndex) DeleteRecord(id uuid.UUID) error {
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.index.Delete(id.String())
}

// Search runs a fuzzy match over category and note, scoped to one user.
func (si *SearchIndex) Search(userID uuid.UUID, queryText string, limit int) ([]SearchHit, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	matchQuery := bleve.NewMatchQuery(queryText)
	matchQuery.SetFuzziness(1)

	userQuery := bleve.NewTermQuery(userID.String())
	userQuery.SetField("user_id")

	conjunction := bleve.NewConjunctionQuery(userQuery, matchQuery)

	searchRequest := bleve.NewSearchRequest(conjunction)
	searchRequest.Size = limit

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		hits = append(hits, SearchHit{RecordID: id, Score: hit.Score})
	}
	return hits, nil
}

// Close releases the index.
func (si *SearchIndex) Close() error {
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.index.Close()
}
