package elasticsearch

// DefaultIndexName is the index holding book documents.
const DefaultIndexName = "mbook_books"

// buildIndexMapping returns the books index settings and mapping. Text fields
// keep a keyword subfield so exact-match filters and id-ordered scans need no
// fielddata.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "folding": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":            { "type": "long" },
      "title":         { "type": "text", "analyzer": "folding", "fields": { "keyword": { "type": "keyword", "ignore_above": 512 } } },
      "author":        { "type": "text", "analyzer": "folding", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description":   { "type": "text", "analyzer": "folding" },
      "fullText":      { "type": "text", "analyzer": "folding" },
      "tags":          { "type": "keyword" },
      "category":      { "type": "keyword" },
      "language":      { "type": "keyword" },
      "publisher":     { "type": "keyword" },
      "series":        { "type": "keyword" },
      "seriesNumber":  { "type": "integer" },
      "isbn":          { "type": "keyword" },
      "price":         { "type": "double" },
      "originalPrice": { "type": "double" },
      "rating":        { "type": "float" },
      "reviewCount":   { "type": "integer" },
      "pages":         { "type": "integer" },
      "publishDate":   { "type": "date", "format": "yyyy-MM-dd" },
      "format":        { "type": "keyword" },
      "cover":         { "type": "keyword", "index": false },
      "audiobook":     { "type": "boolean" },
      "narrator":      { "type": "keyword" }
    }
  }
}`
}
