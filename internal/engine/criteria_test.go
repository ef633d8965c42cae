package engine

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
)

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name        string
		in          map[string]string
		want        domain.FilterCriteria
		wantIgnored int
	}{
		{
			name: "canonical keys",
			in: map[string]string{
				"province": "Riau", "district": "Kab. Kampar", "yearAllocated": "1998",
				"legalStatus": "serah_sk_serah", "problem": "company", "q": "sengketa",
			},
			want: domain.FilterCriteria{
				Province: "Riau", District: "Kab. Kampar", YearAllocated: "1998",
				StatusHandedOver: domain.StatusHandedOverDecreeRef, Problem: domain.ProblemCompany, Query: "sengketa",
			},
		},
		{
			name: "dashboard control names",
			in:   map[string]string{"provinsi": "Aceh", "kabupaten": "Kab. Aceh Timur", "tahunPatan": "2001", "permasalahan": "kwsHutan"},
			want: domain.FilterCriteria{Province: "Aceh", District: "Kab. Aceh Timur", YearAllocated: "2001", Problem: domain.ProblemForestArea},
		},
		{
			name: "status bina alias",
			in:   map[string]string{"statusBina": "sdhHPL"},
			want: domain.FilterCriteria{StatusUnderManagement: domain.StatusUnderManagementHasTitle},
		},
		{
			name: "status serah alias",
			in:   map[string]string{"statusSerah": "sdhHPL"},
			want: domain.FilterCriteria{StatusHandedOver: domain.StatusHandedOverHasTitle},
		},
		{
			name: "both status selects",
			in:   map[string]string{"statusBina": "blmHPL", "statusSerah": "skSerah"},
			want: domain.FilterCriteria{
				StatusUnderManagement: domain.StatusUnderManagementNoTitle,
				StatusHandedOver:      domain.StatusHandedOverDecreeRef,
			},
		},
		{
			name: "legal status routed by group",
			in:   map[string]string{"legalStatus": "bina_tdk_hpl"},
			want: domain.FilterCriteria{StatusUnderManagement: domain.StatusUnderManagementNotApplicable},
		},
		{
			name:        "status bina rejects serah option",
			in:          map[string]string{"statusBina": "skSerah"},
			wantIgnored: 1,
		},
		{
			name: "problem aliases",
			in:   map[string]string{"problem": "Lain-lain"},
			want: domain.FilterCriteria{Problem: domain.ProblemOther},
		},
		{
			name: "empty values are absent",
			in:   map[string]string{"province": "", "problem": "  "},
			want: domain.FilterCriteria{},
		},
		{
			name:        "unknown key and option",
			in:          map[string]string{"color": "red", "problem": "banjir", "province": "Riau"},
			want:        domain.FilterCriteria{Province: "Riau"},
			wantIgnored: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			for k, v := range tt.in {
				values.Set(k, v)
			}

			got, ignored := ParseCriteria(values)

			assert.Equal(t, tt.want, got)
			assert.Len(t, ignored, tt.wantIgnored)

			for _, ig := range ignored {
				assert.True(t, errors.Is(ig.Err(), errors.ErrInvalidFilterCriterion))
			}
		})
	}
}

func TestParseCriteria_Conflict(t *testing.T) {
	got, ignored := ParseCriteria(url.Values{"province": {"Aceh", "Riau"}})

	assert.Equal(t, "Aceh", got.Province)
	require.Len(t, ignored, 1)
	assert.Equal(t, ReasonConflict, ignored[0].Reason)
}

func TestValues_RoundTrip(t *testing.T) {
	c := domain.FilterCriteria{
		Province:              "Maluku Utara",
		StatusUnderManagement: domain.StatusUnderManagementNoTitle,
		StatusHandedOver:      domain.StatusHandedOverHasTitle,
		Problem:               domain.ProblemMHA,
		Query:                 "adat",
	}

	got, ignored := ParseCriteria(Values(c))

	assert.Empty(t, ignored)
	assert.Equal(t, c, got)
}
