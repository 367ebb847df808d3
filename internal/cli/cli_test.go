package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datenorm/internal/dateinfer"
)

func execute(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "datenorm v"+Version+"\n", out)
}

func TestConvertCommand_StdinToStdout(t *testing.T) {
	out, stderr, err := execute(t, "id,trade_date\n1,31-01-2020\n2,01-02-2020\n",
		"convert", "--out-kind", "json", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, `"trade_date":"2020-01-31"`)
	assert.Contains(t, out, `"trade_date":"2020-02-01"`)
	assert.Contains(t, stderr, "%d-%m-%Y")
	assert.NotContains(t, stderr, "skipped")
}

func TestConvertCommand_Quiet(t *testing.T) {
	out, stderr, err := execute(t, "as_of_date\n2020/01/02\n", "convert", "-q", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, "as_of_date\n2020-01-02\n", out)
	assert.Empty(t, stderr)
}

func TestConvertCommand_CustomMarker(t *testing.T) {
	out, _, err := execute(t, "trade_dt,trade_date\n2020/01/31,2020/01/31\n",
		"convert", "-q", "--marker", "dt", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t, "trade_dt,trade_date\n2020-01-31,2020/01/31\n", out)
}

func TestInferCommand_CSVFormat(t *testing.T) {
	in := writeFile(t, "trades.csv", "name,trade_date,date_key\nx,2020/01/31,20200131\ny,2020/02/01,20200201\n")

	out, _, err := execute(t, "", "infer", "--in", in, "--format", "csv")
	require.NoError(t, err)

	assert.Contains(t, out, "trade_date,inferred,/,%Y/%m/%d")
	assert.Contains(t, out, "date_key,integer")
	assert.Contains(t, out, "name,skipped")
}

func TestInferCommand_BadFormat(t *testing.T) {
	in := writeFile(t, "t.csv", "d\n")
	_, _, err := execute(t, "", "infer", "--in", in, "--format", "yaml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestSummaryCommand(t *testing.T) {
	in := writeFile(t, "t.csv", "trade_date,qty\n2020/01/31,\n2020/02/01,3\n")

	out, _, err := execute(t, "", "summary", "--in", in, "--convert")
	require.NoError(t, err)

	assert.Contains(t, out, "Number of rows: 2\n")
	assert.Contains(t, out, "Number of nulls: 1\n")
	assert.Contains(t, out, "Unique kinds: [date, text]\n")
}

func TestValidateCommand(t *testing.T) {
	out, _, err := execute(t, "", "validate", "--out-kind", "postgres")
	require.Error(t, err)
	assert.Contains(t, out, "output.dsn")
	assert.Contains(t, out, "output.table")

	out, _, err = execute(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")
}

func TestBusdayCommand(t *testing.T) {
	holidays := writeFile(t, "holidays.txt", "# US\n25/12/2019\n19/04/2019\n\n")

	out, _, err := execute(t, "", "busday", "--holidays", holidays, "--date", "2019-04-23", "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, "2019-04-22\n2019-04-18\n2019-04-17\n", out)
}

func TestBusdayCommand_RequiresHolidays(t *testing.T) {
	_, _, err := execute(t, "", "busday")
	assert.Error(t, err)
}

func TestReadHolidays_BadLine(t *testing.T) {
	conv := dateinfer.New(dateinfer.Options{})
	_, err := readHolidays(strings.NewReader("2019-12-25\nnope\n"), conv)
	assert.ErrorContains(t, err, `"nope"`)
}

func TestReadHolidays_Empty(t *testing.T) {
	got, err := readHolidays(strings.NewReader("\n"), dateinfer.New(dateinfer.Options{}))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
