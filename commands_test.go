package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pcc-tenders/config"
	"pcc-tenders/models"
	"pcc-tenders/services"
	"pcc-tenders/utils"
)

func TestSetupAppliesFlagOverrides(t *testing.T) {
	t.Setenv("CSV_OUTPUT_PATH", "./from-env.csv")
	t.Setenv("ARCHIVE_ENABLED", "false")

	cfg, logger := setup(&outputFlags{csvPath: "./from-flag.csv", archive: true, continueOnError: true})
	require.NotNil(t, logger)
	require.Equal(t, "./from-flag.csv", cfg.CSVOutputPath)
	require.True(t, cfg.ArchiveEnabled)
	require.True(t, cfg.ContinueOnError)
}

func TestSetupKeepsEnvWithoutFlags(t *testing.T) {
	t.Setenv("CSV_OUTPUT_PATH", "./from-env.csv")

	cfg, _ := setup(&outputFlags{})
	require.Equal(t, "./from-env.csv", cfg.CSVOutputPath)
	require.False(t, cfg.ContinueOnError)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"crawl", "fetch", "agencies"} {
		require.True(t, names[want], "missing command %s", want)
	}
	require.NotNil(t, fetchCmd.Flags().Lookup("month"))
	require.NotNil(t, crawlCmd.Flags().Lookup("agency"))
}

func sampleResult() *models.DisplayTable {
	raw := models.NewRawTable()
	raw.AddTender(&models.TenderRow{Agency: "宜蘭縣政府", Fields: map[string]models.Cell{
		models.FieldName: models.Text("LED路燈汰換"),
		models.FieldURL:  models.Text("https://web.pcc.gov.tw/tps/tender/1"),
	}})
	raw.AddTender(&models.TenderRow{Agency: "宜蘭縣政府", Fields: map[string]models.Cell{
		models.FieldName: models.Text("護岸工程"),
	}})
	raw.Append(models.NewSentinelTable("宜蘭縣大同鄉公所", models.SentinelMessage))
	return services.NewNormalizer(utils.NewDiscardLogger()).Normalize(raw)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "\uFEFF"), "missing byte-order mark")

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF"))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestPresentWritesFilteredCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tenders.csv")
	cfg := &config.Config{CSVOutputPath: path}
	var out bytes.Buffer

	err := present(&out, cfg, utils.NewDiscardLogger(), sampleResult(), &outputFlags{filter: "led", rawLinks: true, preview: 5})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	require.Equal(t, sampleResult().Header(), rows[0])

	header := rows[0]
	record := map[string]string{}
	for i, label := range header {
		record[label] = rows[1][i]
	}
	require.Equal(t, "宜蘭縣政府", record[models.AgencyLabel])
	require.Equal(t, "LED路燈汰換", record[models.NameLabel])
	require.Equal(t, "https://web.pcc.gov.tw/tps/tender/1", record[models.URLLabel])
	require.Contains(t, out.String(), "LED路燈汰換")
}

func TestPresentKeepsSentinelsWithoutFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenders.csv")
	cfg := &config.Config{CSVOutputPath: path}

	err := present(&bytes.Buffer{}, cfg, utils.NewDiscardLogger(), sampleResult(), &outputFlags{})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 4)
	last := rows[3]
	require.Equal(t, "宜蘭縣大同鄉公所", last[0])
	require.Equal(t, models.SentinelMessage, last[len(last)-1])
	require.Contains(t, rows[1], `<a href="https://web.pcc.gov.tw/tps/tender/1" target="_blank">連結</a>`)
}

func TestExecuteReportsFailureThroughLogger(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := utils.NewLoggerTo(&stdout, &stderr, false)

	code := execute(context.Background(), logger, []string{"crawl", "--agency", "不存在的機關", "--csv", filepath.Join(t.TempDir(), "x.csv")})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "ERROR")
	require.Contains(t, stderr.String(), "不存在的機關")
}
