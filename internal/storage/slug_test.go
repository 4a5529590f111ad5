package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Nüfus Artışı", "nufus-artisi"},
		{"İşsizlik Oranı 2023", "issizlik-orani-2023"},
		{"Çağrı Merkezi Şikayetleri", "cagri-merkezi-sikayetleri"},
		{"Göç  --  İstatistikleri", "goc-istatistikleri"},
		{"  boşluklu başlık  ", "bosluklu-baslik"},
		{"already-a-slug", "already-a-slug"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}

func TestSourceEncoding(t *testing.T) {
	s := Source{Text: "TÜİK", URL: "https://tuik.gov.tr"}
	encoded := EncodeSource(s)
	assert.Equal(t, "TÜİK|https://tuik.gov.tr", encoded)
	assert.Equal(t, s, DecodeSource(encoded))

	bare := Source{Text: "Saha araştırması"}
	assert.Equal(t, "Saha araştırması", EncodeSource(bare))
	assert.Equal(t, bare, DecodeSource("Saha araştırması"))
}

func TestStringListEncoding(t *testing.T) {
	encoded, err := encodeStringList(nil)
	assert.NoError(t, err)
	assert.Equal(t, "[]", encoded)

	encoded, err = encodeStringList([]string{"ekonomi", "nüfus"})
	assert.NoError(t, err)
	decoded, err := decodeStringList(encoded)
	assert.NoError(t, err)
	assert.Equal(t, []string{"ekonomi", "nüfus"}, decoded)

	decoded, err = decodeStringList("")
	assert.NoError(t, err)
	assert.Empty(t, decoded)
}
