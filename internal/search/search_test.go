package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Gödel, Escher, Bach", want: "godel, escher, bach"},
		{in: "  Les   Misérables ", want: "les miserables"},
		{in: "CRIME AND PUNISHMENT", want: "crime and punishment"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestDocumentFor(t *testing.T) {
	t.Parallel()

	b := &models.Book{
		ISBN:            "978",
		Title:           "Éléments",
		PublicationYear: 1999,
		Authors:         []models.Author{{Name: "Émile Zola"}},
		Category:        &models.Category{Name: "Art"},
		Publisher:       &models.Publisher{Name: "Gallimard"},
	}
	d := DocumentFor(b)
	assert.Equal(t, "elements", d.Title)
	assert.Equal(t, []string{"emile zola"}, d.Authors)
	assert.Equal(t, "Art", d.Category)
	assert.Equal(t, "gallimard", d.Publisher)
}

func TestSearchBody(t *testing.T) {
	t.Parallel()

	body := searchBody("Ünïcode", 20, 10)
	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "unicode", mm["query"])
	assert.Equal(t, 20, body["from"])
	assert.Equal(t, 10, body["size"])
}
