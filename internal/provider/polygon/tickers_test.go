package polygon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTickerList(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK.B"}, ParseTickerList(" aapl,MSFT,,aapl , brk.b,"))
	assert.Empty(t, ParseTickerList(""))
	assert.Empty(t, ParseTickerList(" , ,"))
}

func TestLoadTickersFromFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "watch.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# tech\naapl\nmsft, nvda\n\namd\n"), 0644))
	got, err := LoadTickersFromFile(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "AMD"}, got)

	js := filepath.Join(dir, "watch.json")
	require.NoError(t, os.WriteFile(js, []byte(`["spy","QQQ","spy"]`), 0644))
	got, err = LoadTickersFromFile(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPY", "QQQ"}, got)

	_, err = LoadTickersFromFile(filepath.Join(dir, "watch.csv"))
	assert.Error(t, err)

	got, err = LoadTickers("tsla,spy", js)
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA", "SPY", "QQQ"}, got)
}
