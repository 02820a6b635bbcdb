package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

func TestDecode_Blank(t *testing.T) {
	for _, raw := range []string{"", "  \n"} {
		doc, err := Decode([]byte(raw))
		require.NoError(t, err)
		assert.Empty(t, doc.Entries)
		assert.NotNil(t, doc.Entries)
		assert.Nil(t, doc.LastUpdated)
	}
}

func TestDecode_Document(t *testing.T) {
	raw := `{
	  "entries": [
	    {"id": "strip-002", "title": "Nuevo", "mediaKind": "video", "imageUrl": null, "videoUrl": "strips/v.mp4", "publishDate": "2024-03-01"},
	    {"id": "strip-001", "mediaKind": "image", "imageUrl": "strips/i.png", "videoUrl": null, "publishDate": "2024-02-01", "extra": 1}
	  ],
	  "lastUpdated": "2024-03-01T10:00:00Z"
	}`

	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)

	assert.Equal(t, []string{"strip-002", "strip-001"}, doc.IDs())
	assert.Equal(t, "strips/v.mp4", doc.Entries[0].MediaURL())
	assert.Nil(t, doc.Entries[0].ImageURL)
	assert.NoError(t, doc.Entries[1].Validate())
	require.NotNil(t, doc.LastUpdated)
	assert.Equal(t, 2024, doc.LastUpdated.Year())
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"entries": [`))
	assert.Error(t, err)
}

func TestEncode_EmptyHasEntriesArrayAndNullTimestamp(t *testing.T) {
	b, err := Encode(models.Document{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries": [], "lastUpdated": null}`, string(b))
	assert.Equal(t, byte('\n'), b[len(b)-1])
}

func TestEncode_Decode_KeepsOrderAndNullURL(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := Empty().
		Prepend(models.NewEntry("strip-001", models.Draft{PublishDate: "2024-02-01", MediaKind: models.MediaImage}, "a.png"), now).
		Prepend(models.NewEntry("strip-002", models.Draft{PublishDate: "2024-03-01", MediaKind: models.MediaVideo}, "b.mp4"), now)

	b, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"imageUrl": null`)

	back, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"strip-002", "strip-001"}, back.IDs())
	assert.True(t, back.LastUpdated.Equal(now))
}

func TestFragment(t *testing.T) {
	e := models.NewEntry("strip-007", models.Draft{Title: "T", PublishDate: "2024-01-05", MediaKind: models.MediaImage}, "/strips/x.png")

	s, err := Fragment(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"strip-007","title":"T","mediaKind":"image","imageUrl":"/strips/x.png","videoUrl":null,"publishDate":"2024-01-05"}`, s)
}

func TestDecode_Encode_KeepsUnknownFields(t *testing.T) {
	raw := `{
	  "entries": [
	    {"id": "strip-001", "mediaKind": "image", "imageUrl": "strips/i.png", "videoUrl": null, "publishDate": "2024-02-01", "alt": "Gato", "tags": ["lunes", 2]}
	  ],
	  "lastUpdated": "2024-03-01T10:00:00Z",
	  "schema": 2
	}`

	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"schema": []byte("2")}, doc.Extra)
	require.Len(t, doc.Entries, 1)
	assert.JSONEq(t, `"Gato"`, string(doc.Entries[0].Extra["alt"]))

	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	next := doc.Prepend(models.NewEntry("strip-002", models.Draft{PublishDate: "2024-03-02", MediaKind: models.MediaVideo}, "b.mp4"), now)
	b, err := Encode(next)
	require.NoError(t, err)

	assert.JSONEq(t, `{
	  "entries": [
	    {"id": "strip-002", "mediaKind": "video", "imageUrl": null, "videoUrl": "b.mp4", "publishDate": "2024-03-02"},
	    {"id": "strip-001", "mediaKind": "image", "imageUrl": "strips/i.png", "videoUrl": null, "publishDate": "2024-02-01", "alt": "Gato", "tags": ["lunes", 2]}
	  ],
	  "lastUpdated": "2024-03-02T00:00:00Z",
	  "schema": 2
	}`, string(b))
}

func TestDecode_KnownFieldsOnlyLeaveExtraNil(t *testing.T) {
	doc, err := Decode([]byte(`{"entries":[{"id":"strip-001","mediaKind":"image","imageUrl":"a.png","videoUrl":null,"publishDate":"2024-01-01"}],"lastUpdated":null}`))
	require.NoError(t, err)
	assert.Nil(t, doc.Extra)
	assert.Nil(t, doc.Entries[0].Extra)
}

func TestEncode_SkipsExtraShadowingKnownField(t *testing.T) {
	e := models.NewEntry("strip-001", models.Draft{PublishDate: "2024-01-01", MediaKind: models.MediaImage}, "a.png")
	e.Extra = map[string][]byte{"id": []byte(`"strip-999"`), "alt": []byte(`"x"`)}

	s, err := Fragment(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"strip-001","mediaKind":"image","imageUrl":"a.png","videoUrl":null,"publishDate":"2024-01-01","alt":"x"}`, s)
}

func TestEncode_RejectsInvalidExtra(t *testing.T) {
	doc := Empty()
	doc.Extra = map[string][]byte{"broken": []byte("{")}
	_, err := Encode(doc)
	assert.Error(t, err)
}
