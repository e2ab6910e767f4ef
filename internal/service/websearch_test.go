package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCandidateURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"plain article", "https://www.schnitzkunst.de/anleitung/messerhaltung", true},
		{"forum thread", "https://forum.holzwerken.net/thread/1234", true},
		{"youtube", "https://www.youtube.com/watch?v=abc", false},
		{"facebook", "https://facebook.com/groups/schnitzen", false},
		{"amazon de", "https://www.amazon.de/dp/B000000", false},
		{"ebay", "https://www.ebay.de/itm/12345", false},
		{"idealo", "https://www.idealo.de/preisvergleich/schnitzmesser", false},
		{"shop subdomain", "https://shop.werkzeughaus.de/messer", false},
		{"kaufen in domain", "https://messer-kaufen.de/ratgeber", false},
		{"shop path", "https://www.holzwerken.net/shop/messer", false},
		{"product path", "https://www.werkzeug.de/products/schnitzmesser", false},
		{"empty", "", false},
		{"no host", "/relative/path", false},
		{"garbage", "ht tp://broken url", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCandidateURL(tt.url))
		})
	}
}

func TestDedupeURLs(t *testing.T) {
	urls := []string{
		"https://a.de/1",
		"https://b.de/2",
		"https://a.de/1",
		"https://c.de/3",
		"https://b.de/2",
	}

	deduped := DedupeURLs(urls)
	assert.Equal(t, []string{"https://a.de/1", "https://b.de/2", "https://c.de/3"}, deduped)

	assert.Empty(t, DedupeURLs(nil))
}
