package dateinfer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSeparator(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    Separator
	}{
		{"all dash", []string{"2020-01-01", "31-12-2020"}, Dash},
		{"all slash", []string{"2020/01/01", "2020/01/02"}, Slash},
		{"one without dash", []string{"2020-01-01", "2020/01/02"}, Slash},
		{"neither", []string{"20200101"}, Slash},
		{"empty", nil, Slash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSeparator(tt.samples))
		})
	}
}

func TestClassify_Numeric(t *testing.T) {
	c, err := Classify([]string{"2020/01/31", "2020/02/01"})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleYear, RoleMonth, RoleDay}, c.Roles)
	assert.Equal(t, []int{2020, 2, 31}, c.Max)
	assert.False(t, c.NamedMonth)
	assert.Equal(t, 4, c.YearWidth)
	assert.Equal(t, 0, c.YearPos())
}

func TestClassify_BothLowPositionsReadAsMonth(t *testing.T) {
	c, err := Classify([]string{"01-02-2020", "03-04-2021"})
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleMonth, RoleMonth, RoleYear}, c.Roles)
	assert.Equal(t, 2, c.YearPos())
}

func TestClassify_Failures(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    error
	}{
		{"no samples", nil, ErrNoSamples},
		{"token count", []string{"2020/01/01", "2020/01"}, ErrTokenCount},
		{"empty token dropped", []string{"2020//01"}, ErrTokenCount},
		{"no year", []string{"01/02/03", "04/05/06"}, ErrYearNotFound},
		{"two years", []string{"2020/2021/01"}, ErrAmbiguousYear},
		{"named without numeric year", []string{"01-Jan-abc"}, ErrYearNotFound},
		{"named wrong width", []string{"Jan-2020"}, ErrTokenCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.samples)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClassify_NamedMonth(t *testing.T) {
	c, err := Classify([]string{"01-Jan-2020", "15-feb-2021"})
	require.NoError(t, err)
	assert.True(t, c.NamedMonth)
	assert.Equal(t, []Role{RoleDay, RoleMonth, RoleYear}, c.Roles)
	assert.Equal(t, 4, c.YearWidth)

	c, err = Classify([]string{"01-Jan-20"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.YearWidth)
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    string
		layout  string
	}{
		{"year first default month-day", []string{"2020/01/02", "2020/03/04"}, "%Y/%m/%d", "2006/1/2"},
		{"year last default day-month", []string{"01-02-2020", "03-04-2020"}, "%d-%m-%Y", "2-1-2006"},
		{"year first day above 12 last", []string{"2020/01/13", "2020/02/01"}, "%Y/%m/%d", "2006/1/2"},
		{"year first day above 12 middle", []string{"2020/13/01", "2020/14/02"}, "%Y/%d/%m", "2006/2/1"},
		{"year last day above 12 first", []string{"31-01-2020", "01-02-2020"}, "%d-%m-%Y", "2-1-2006"},
		{"year last day above 12 middle", []string{"01/31/2020", "02/01/2020"}, "%m/%d/%Y", "1/2/2006"},
		{"named month", []string{"01-Jan-2020"}, "%d-%b-%Y", "2-Jan-2006"},
		{"named month short year", []string{"01/Jan/20"}, "%d/%b/%y", "2/Jan/06"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(tt.samples)
			require.NoError(t, err)
			p, err := Synthesize(c, DetectSeparator(tt.samples))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
			assert.Equal(t, tt.layout, p.Layout())
		})
	}
}

func TestSynthesize_RejectsYearInMiddle(t *testing.T) {
	c, err := Classify([]string{"01/2020/05", "02/2021/06"})
	require.NoError(t, err)
	_, err = Synthesize(c, Slash)
	assert.ErrorIs(t, err, ErrYearInMiddle)
}

func TestSynthesize_RejectsUnassignedPosition(t *testing.T) {
	// 45 is above every month and day bound.
	c, err := Classify([]string{"2020/45/01"})
	require.NoError(t, err)
	_, err = Synthesize(c, Slash)
	assert.ErrorIs(t, err, ErrUnassignedPosition)
}

func TestSynthesize_RejectsFourTokens(t *testing.T) {
	c, err := Classify([]string{"2020/01/02/03"})
	require.NoError(t, err)
	_, err = Synthesize(c, Slash)
	assert.ErrorIs(t, err, ErrTokenCount)
}

func TestPatternParse(t *testing.T) {
	p := Pattern{Sep: Dash, Order: [3]Role{RoleDay, RoleMonth, RoleYear}, YearWidth: 4, NamedMonth: true}
	got, err := p.Parse(" 05-jan-2021 ")
	require.NoError(t, err)
	assert.Equal(t, day(2021, 1, 5), got)

	_, err = p.Parse("05-Foo-2021")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  2020/01/02 ", "2020/01/02"},
		{"\ufeff2020-01-02", "2020-01-02"},
		{"\uff12\uff10\uff12\uff10\uff0f\uff10\uff11\uff0f\uff10\uff12", "2020/01/02"},
		{"2020-01-02\u00a0", "2020-01-02"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestClassifyInt(t *testing.T) {
	tests := []struct {
		in    any
		want  int64
		class IntClass
	}{
		{int64(7), 7, Integer},
		{3, 3, Integer},
		{int32(4), 4, Integer},
		{float64(20200101), 20200101, Integer},
		{1.5, 0, NonInteger},
		{1e300, 0, NonInteger},
		{-1e19, 0, NonInteger},
		{9223372036854775808.0, 0, NonInteger},
		{-9223372036854775808.0, math.MinInt64, Integer},
		{" 42 ", 42, Integer},
		{"2020-01-01", 0, NonInteger},
		{true, 0, NonInteger},
	}
	for _, tt := range tests {
		n, class := ClassifyInt(tt.in)
		assert.Equal(t, tt.class, class, "input %#v", tt.in)
		assert.Equal(t, tt.want, n, "input %#v", tt.in)
	}
}
