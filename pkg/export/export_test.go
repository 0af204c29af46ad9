package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVRendersHeadersAndRows(t *testing.T) {
	table := Table{
		Headers: []string{"Student", "Status", "Duration"},
		Rows: [][]string{
			{"Alice Kim", "present", "50"},
			{"Ben Osei", "late", "30"},
		},
	}
	out, err := CSV(table)
	require.NoError(t, err)
	require.Equal(t, "Student,Status,Duration\nAlice Kim,present,50\nBen Osei,late,30\n", string(out))
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := CSV(Table{})
	require.Error(t, err)
}

func TestPDFProducesDocument(t *testing.T) {
	table := Table{
		Title:   "Attendance Report",
		Headers: []string{"Student", "Status"},
		Rows:    [][]string{{"Alice Kim", "present"}},
	}
	out, err := PDF(table)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
