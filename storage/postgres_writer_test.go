package storage

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"pcc-tenders/models"
)

func TestArchiveRowStoresBareURLs(t *testing.T) {
	rec := sampleTable().Records[0]
	row := archiveRow(rec)

	require.Len(t, row, len(archiveColumns))
	require.Equal(t, "宜蘭縣政府", row[0])
	require.Equal(t, "護岸工程", row[3])
	require.Equal(t, sql.NullString{String: "https://example.test/t?a=1&b=2", Valid: true}, row[7])
	require.Equal(t, sql.NullString{}, row[10])
	require.Equal(t, "", row[2], "missing key columns are stored as empty strings")
}

func TestArchiveRowKeepsNullOptionalColumns(t *testing.T) {
	rec := models.DisplayRecord{Agency: "A", Cells: make([]models.Cell, len(models.DisplayLabels()))}
	row := archiveRow(rec)
	require.Equal(t, sql.NullString{}, row[1])
}
