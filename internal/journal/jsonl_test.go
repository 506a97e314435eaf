package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factoryMonitor/internal/model"
)

func TestJSONLAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "failures.jsonl")
	j := NewJSONL(path)

	require.NoError(t, j.Record(model.ProjectionFailure{BlockNumber: 1, TxHash: "0xa", Error: "boom"}))
	require.NoError(t, j.Record(
		model.ProjectionFailure{BlockNumber: 2, TxHash: "0xb", EventName: "TokensSold", Error: "x"},
		model.ProjectionFailure{BlockNumber: 3, TxHash: "0xc", Error: "y"},
	))
	require.NoError(t, j.Record())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var got []model.ProjectionFailure
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var f model.ProjectionFailure
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &f))
		got = append(got, f)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, got, 3)
	assert.Equal(t, "TokensSold", got[1].EventName)
	assert.Equal(t, uint64(3), got[2].BlockNumber)
}
