package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFeaturedIDs(t *testing.T) {
	assert.Empty(t, ParseFeaturedIDs(""))
	assert.Empty(t, ParseFeaturedIDs("   "))
	assert.Equal(t, []uint{2, 5}, ParseFeaturedIDs("[2,5]"))
	assert.Equal(t, []uint{7}, ParseFeaturedIDs("[7]"))

	// Битая сериализация молча превращается в пустой список
	assert.Empty(t, ParseFeaturedIDs("[2,5"))
	assert.Empty(t, ParseFeaturedIDs("не json"))
	assert.Empty(t, ParseFeaturedIDs(`{"id":2}`))
}

func TestAbsoluteURL(t *testing.T) {
	origin := "http://localhost:8080"

	assert.Equal(t, "http://localhost:8080/static/audio/a.mp3", AbsoluteURL(origin, "/static/audio/a.mp3"))
	assert.Equal(t, "http://localhost:8080/static/audio/a.mp3", AbsoluteURL(origin, "static/audio/a.mp3"))

	// Уже абсолютные URL проходят без изменений
	assert.Equal(t, "http://cdn.example.com/a.mp3", AbsoluteURL(origin, "http://cdn.example.com/a.mp3"))
	assert.Equal(t, "https://cdn.example.com/a.mp3", AbsoluteURL(origin, "https://cdn.example.com/a.mp3"))
}
