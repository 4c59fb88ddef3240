// Package search keeps an Elasticsearch index of the catalog for full-text
// book search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
	"github.com/rs/zerolog"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

type Client struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	log.Info().Str("url", cfg.URL).Str("index", cfg.Index).Msg("connecting to elasticsearch")

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("info", res)
	}

	return &Client{es: es, index: cfg.Index}, nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "isbn":      {"type": "keyword"},
      "title":     {"type": "text"},
      "authors":   {"type": "text"},
      "category":  {"type": "keyword"},
      "publisher": {"type": "text"},
      "year":      {"type": "integer"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

type Document struct {
	ISBN      string   `json:"isbn"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Category  string   `json:"category,omitempty"`
	Publisher string   `json:"publisher,omitempty"`
	Year      int      `json:"year"`
}

func DocumentFor(b *models.Book) Document {
	d := Document{ISBN: b.ISBN, Title: Normalize(b.Title), Year: b.PublicationYear, Authors: []string{}}
	for _, a := range b.Authors {
		d.Authors = append(d.Authors, Normalize(a.Name))
	}
	if b.Category != nil {
		d.Category = b.Category.Name
	}
	if b.Publisher != nil {
		d.Publisher = Normalize(b.Publisher.Name)
	}
	return d
}

func (c *Client) IndexBook(ctx context.Context, b *models.Book) error {
	data, err := json.Marshal(DocumentFor(b))
	if err != nil {
		return err
	}

	res, err := c.es.Index(c.index, bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(b.ISBN),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index %s: %w", b.ISBN, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

func (c *Client) DeleteBook(ctx context.Context, isbn string) error {
	res, err := c.es.Delete(c.index, isbn, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete %s: %w", isbn, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

func searchBody(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     Normalize(query),
				"fields":    []string{"title^3", "authors^2", "publisher", "isbn"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"isbn"},
		"from":    from,
		"size":    size,
	}
}

// Search returns the ISBNs of the best matching books, best first, and the
// total number of hits.
func (c *Client) Search(ctx context.Context, query string, from, size int) (int64, []string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(query, from, size)); err != nil {
		return 0, nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ISBN string `json:"isbn"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch decode: %w", err)
	}

	isbns := make([]string, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		isbns = append(isbns, h.Source.ISBN)
	}
	return r.Hits.Total.Value, isbns, nil
}
