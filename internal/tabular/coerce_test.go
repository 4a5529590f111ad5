package tabular

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name      string
		cell      string
		delimiter rune
		want      float64
		ok        bool
	}{
		{"plain integer", "100", ',', 100, true},
		{"dot decimal", "12.5", ',', 12.5, true},
		{"comma decimal under tab", "8,8", '\t', 8.8, true},
		{"comma decimal under comma stays text", "8,8", ',', 0, false},
		{"negative", "-3.2", ',', -3.2, true},
		{"surrounding space", " 42 ", ',', 42, true},
		{"empty", "", ',', 0, false},
		{"text", "Ankara", '\t', 0, false},
		{"infinity rejected", "Inf", ',', 0, false},
		{"nan rejected", "NaN", ',', 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseNumber(tc.cell, tc.delimiter)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestCoerceNumber(t *testing.T) {
	v, ok := CoerceNumber(12.5)
	require.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = CoerceNumber(7)
	require.True(t, ok)
	assert.Equal(t, 7.0, v)

	v, ok = CoerceNumber("8,8")
	require.True(t, ok)
	assert.Equal(t, 8.8, v)

	_, ok = CoerceNumber(nil)
	assert.False(t, ok)
	_, ok = CoerceNumber("metin")
	assert.False(t, ok)
}

func TestParseTimeValue(t *testing.T) {
	year2020 := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseTimeValue("2020")
	require.NoError(t, err)
	assert.Equal(t, year2020, got)

	got, err = ParseTimeValue(2020.0)
	require.NoError(t, err)
	assert.Equal(t, year2020, got)

	got, err = ParseTimeValue(2020)
	require.NoError(t, err)
	assert.Equal(t, year2020, got)

	got, err = ParseTimeValue("2020-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTimeValue("15.03.2020")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTimeValue("2020-03")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())
}

func TestParseTimeValueRejectsGarbage(t *testing.T) {
	for _, v := range []interface{}{"belirsiz", "20", 3.14, nil, ""} {
		_, err := ParseTimeValue(v)
		assert.ErrorIs(t, err, ErrUnparsableTime, "value %v", v)
	}
}

func TestSuggestTimeColumn(t *testing.T) {
	assert.Equal(t, "Yıl", SuggestTimeColumn([]string{"Yıl", "Nüfus"}))
	assert.Equal(t, "year", SuggestTimeColumn([]string{"value", "year"}))
	assert.Equal(t, "Tarih", SuggestTimeColumn([]string{"Bölge", "Tarih"}))
	assert.Equal(t, "", SuggestTimeColumn([]string{"Bölge", "Nüfus"}))
}

func TestSuggest(t *testing.T) {
	table, err := Parse("Yıl,Nüfus,Bölge,Oran\n2020,100,İç Anadolu,3.5\n2021,120,Ege,4.1")
	require.NoError(t, err)

	s := Suggest(table)
	assert.Equal(t, "Yıl", s.Time)
	assert.Equal(t, []string{"Nüfus", "Oran"}, s.Value)
}

func TestSuggestSkipsEmptyColumns(t *testing.T) {
	table, err := Parse("Yıl,Boş,Değer\n2020,,100\n2021,,120")
	require.NoError(t, err)

	s := Suggest(table)
	assert.Equal(t, []string{"Değer"}, s.Value)
}

func TestToLongFormatOrder(t *testing.T) {
	rows := []Row{
		{"Yıl": 2020.0, "A": 1.0, "B": 2.0},
		{"Yıl": 2021.0, "A": 3.0, "B": ""},
	}
	tuples := ToLongFormat(rows, "Yıl", []string{"B", "A"})

	// Row-major, then caller's column order; empty cells dropped.
	require.Len(t, tuples, 3)
	assert.Equal(t, LongTuple{Time: 2020.0, Series: "B", Value: 2}, tuples[0])
	assert.Equal(t, LongTuple{Time: 2020.0, Series: "A", Value: 1}, tuples[1])
	assert.Equal(t, LongTuple{Time: 2021.0, Series: "A", Value: 3}, tuples[2])
}
