package rss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tuple(y, mo, d, h, mi, s int) TimeTuple {
	return TimeTuple{y, mo, d, h, mi, s, 0, 1, 0}
}

func TestResolveTime_RSSPubDate(t *testing.T) {
	e := Entry{Times: map[TimeField]TimeTuple{
		FieldPubDate: tuple(2024, 1, 2, 3, 4, 5),
	}}

	got := ResolveTime(e, FormatRSS)

	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), *got)
}

func TestResolveTime_AtomPrefersUpdated(t *testing.T) {
	e := Entry{Times: map[TimeField]TimeTuple{
		FieldUpdated:   tuple(2024, 2, 1, 0, 0, 0),
		FieldPublished: tuple(2024, 1, 1, 0, 0, 0),
	}}

	got := ResolveTime(e, FormatAtom)

	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *got)
}

func TestResolveTime_UnknownPrefersPublished(t *testing.T) {
	e := Entry{Times: map[TimeField]TimeTuple{
		FieldUpdated:   tuple(2024, 2, 1, 0, 0, 0),
		FieldPublished: tuple(2024, 1, 1, 0, 0, 0),
	}}

	got := ResolveTime(e, FormatUnknown)

	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *got)
}

func TestResolveTime_SkipsInvalidCandidate(t *testing.T) {
	e := Entry{Times: map[TimeField]TimeTuple{
		FieldUpdated:   tuple(2024, 13, 1, 0, 0, 0),
		FieldPublished: tuple(2023, 6, 30, 12, 0, 0),
	}}

	got := ResolveTime(e, FormatAtom)

	require.NotNil(t, got)
	assert.Equal(t, time.Date(2023, 6, 30, 12, 0, 0, 0, time.UTC), *got)
}

func TestResolveTime_FieldOutsideTableIgnored(t *testing.T) {
	e := Entry{Times: map[TimeField]TimeTuple{
		FieldUpdated: tuple(2024, 1, 1, 0, 0, 0),
	}}

	assert.Nil(t, ResolveTime(e, FormatRSS))
}

func TestResolveTime_NoUsableField(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
	}{
		{name: "empty entry", entry: Entry{}},
		{
			name:  "short tuple",
			entry: Entry{Times: map[TimeField]TimeTuple{FieldPublished: {2024, 1, 1}}},
		},
		{
			name:  "raw without tuple",
			entry: Entry{Raw: map[TimeField]string{FieldPublished: "yesterday"}},
		},
		{
			name:  "empty tuple",
			entry: Entry{Times: map[TimeField]TimeTuple{FieldPublished: {}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ResolveTime(tt.entry, FormatUnknown))
		})
	}
}

func TestTimeTuple_Time(t *testing.T) {
	tests := []struct {
		name    string
		tuple   TimeTuple
		wantErr bool
	}{
		{name: "valid", tuple: tuple(2024, 2, 29, 23, 59, 59)},
		{name: "six components", tuple: TimeTuple{2024, 1, 1, 0, 0, 0}},
		{name: "not leap year", tuple: tuple(2023, 2, 29, 0, 0, 0), wantErr: true},
		{name: "month zero", tuple: tuple(2024, 0, 1, 0, 0, 0), wantErr: true},
		{name: "hour 24", tuple: tuple(2024, 1, 1, 24, 0, 0), wantErr: true},
		{name: "minute 60", tuple: tuple(2024, 1, 1, 0, 60, 0), wantErr: true},
		{name: "second 60", tuple: tuple(2024, 1, 1, 0, 0, 60), wantErr: true},
		{name: "year zero", tuple: tuple(0, 1, 1, 0, 0, 0), wantErr: true},
		{name: "five components", tuple: TimeTuple{2024, 1, 1, 0, 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tuple.Time()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTupleFromTime_RoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 10, 8, 30, 15, 0, time.FixedZone("X", 3600))

	tt := TupleFromTime(in)
	got, err := tt.Time()

	require.NoError(t, err)
	assert.Len(t, tt, 9)
	assert.True(t, got.Equal(in.Truncate(time.Second)))
}

func TestCandidateFields_ReturnsCopy(t *testing.T) {
	fields := CandidateFields(FormatRSS)
	fields[0] = FieldModified

	assert.Equal(t, []TimeField{FieldPubDate, FieldPublished}, CandidateFields(FormatRSS))
}
