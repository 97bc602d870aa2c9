package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field names in the index.
const (
	fieldTitle  = "title"
	fieldAuthor = "author"
	fieldNotes  = "notes"
	fieldTags   = "tags"
)

// buildIndexMapping maps reading item documents: English stemming on title
// and notes, plain tokenization on author names, and whole-value tags.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt(fieldTitle, title)

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldAuthor, author)

	notes := bleve.NewTextFieldMapping()
	notes.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt(fieldNotes, notes)

	// Keyword keeps compound tags such as "sci-fi" intact.
	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldTags, tags)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
