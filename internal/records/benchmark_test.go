package records

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"testing"
)

// BenchmarkCleanText runs once per text cell of both input files.
func BenchmarkCleanText(b *testing.B) {
	testCases := []string{
		"Jane Doe",
		"  Graph   Theory \t and\nApplications  ",
		"Title with \x00 null byte",
		strings.Repeat("long abstract ", 400),
		"",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CleanText(tc)
		}
	}
}

// BenchmarkLoadCSV measures the full reader chain plus kind detection.
func BenchmarkLoadCSV(b *testing.B) {
	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")
	w := csv.NewWriter(&buf)
	w.Write([]string{"doi", "title", "authors", "year"})
	for i := range 10000 {
		w.Write([]string{
			"10.1/" + strconv.Itoa(i),
			"Work number " + strconv.Itoa(i),
			"Jane Doe; John Roe; Ana Lima",
			strconv.Itoa(1990 + i%30),
		})
	}
	w.Flush()
	data := buf.Bytes()

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := LoadCSV(bytes.NewReader(data), "works"); err != nil {
			b.Fatal(err)
		}
	}
}
