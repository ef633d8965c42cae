package export

import (
	"strconv"
	"strings"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
)

type columnKind int

const (
	kindText columnKind = iota
	kindCount
	kindFlag
)

// column binds one exported header to a Record field.
type column struct {
	header string
	kind   columnKind
	text   func(*domain.Record) *string
	count  func(*domain.Record) *int
	flag   func(*domain.Record) *bool
}

func textCol(header string, f func(*domain.Record) *string) column {
	return column{header: header, kind: kindText, text: f}
}

func countCol(header string, f func(*domain.Record) *int) column {
	return column{header: header, kind: kindCount, count: f}
}

func flagCol(header string, f func(*domain.Record) *bool) column {
	return column{header: header, kind: kindFlag, flag: f}
}

// Column headers that identify a row on import.
const (
	HeaderID       = "ID"
	HeaderProvince = "Provinsi"
	HeaderDistrict = "Kabupaten"
)

// columns is the fixed export layout, in Record order.
var columns = []column{
	textCol(HeaderID, func(r *domain.Record) *string { return &r.ID }),
	textCol(HeaderProvince, func(r *domain.Record) *string { return &r.Province }),
	textCol(HeaderDistrict, func(r *domain.Record) *string { return &r.District }),
	textCol("Pola", func(r *domain.Record) *string { return &r.Pattern }),
	textCol("Tahun Patan", func(r *domain.Record) *string { return &r.YearAllocated }),
	textCol("Tahun Serah", func(r *domain.Record) *string { return &r.YearHandedOver }),
	countCol("Jumlah KK", func(r *domain.Record) *int { return &r.HouseholdCount }),
	countCol("Beban Tugas SHM", func(r *domain.Record) *int { return &r.TitleDeedTarget }),
	textCol("HPL", func(r *domain.Record) *string { return &r.HPL }),
	countCol("Total Kasus", func(r *domain.Record) *int { return &r.CaseCount }),
	flagCol("Status Bina Blm HPL", func(r *domain.Record) *bool { return &r.StatusUnderManagementNoTitle }),
	flagCol("Status Bina Sdh HPL", func(r *domain.Record) *bool { return &r.StatusUnderManagementHasTitle }),
	flagCol("Status Bina Tdk HPL", func(r *domain.Record) *bool { return &r.StatusUnderManagementNotApplicable }),
	flagCol("Status Serah Sdh HPL", func(r *domain.Record) *bool { return &r.StatusHandedOverHasTitle }),
	textCol("Status Serah SK Serah", func(r *domain.Record) *string { return &r.StatusHandedOverDecreeRef }),
	flagCol("Permasalahan Masyarakat", func(r *domain.Record) *bool { return &r.ProblemCommunity }),
	flagCol("Permasalahan Perusahaan", func(r *domain.Record) *bool { return &r.ProblemCompany }),
	flagCol("Permasalahan Kawasan Hutan", func(r *domain.Record) *bool { return &r.ProblemForestArea }),
	flagCol("Permasalahan MHA", func(r *domain.Record) *bool { return &r.ProblemMHA }),
	flagCol("Permasalahan Instansi", func(r *domain.Record) *bool { return &r.ProblemInstitution }),
	flagCol("Permasalahan Lain-lain", func(r *domain.Record) *bool { return &r.ProblemOther }),
	textCol("Deskripsi Permasalahan", func(r *domain.Record) *string { return &r.ProblemDescription }),
	textCol("Tindak Lanjut", func(r *domain.Record) *string { return &r.FollowUpAction }),
	textCol("Rekomendasi", func(r *domain.Record) *string { return &r.Recommendation }),
}

// Headers returns the export header row.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}

	return out
}

// value returns the cell value of c for r as a typed Go value.
func (c column) value(r *domain.Record) any {
	switch c.kind {
	case kindCount:
		return *c.count(r)
	case kindFlag:
		return *c.flag(r)
	default:
		return *c.text(r)
	}
}

// set parses raw into the field behind c. Text is kept as read. Unparseable
// numbers become 0 and anything but "true" is false.
func (c column) set(r *domain.Record, raw string) {
	if c.kind != kindText {
		raw = strings.TrimSpace(raw)
	}

	switch c.kind {
	case kindCount:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			n = 0
		}

		*c.count(r) = n
	case kindFlag:
		*c.flag(r) = strings.EqualFold(raw, "true")
	default:
		*c.text(r) = raw
	}
}

const utf8BOM = "\ufeff"

// columnIndex maps header names of an imported file to known columns.
func columnIndex(header []string) map[int]column {
	byName := make(map[string]column, len(columns))
	for _, c := range columns {
		byName[strings.ToLower(c.header)] = c
	}

	idx := make(map[int]column, len(header))

	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
		if c, ok := byName[h]; ok {
			idx[i] = c
		}
	}

	return idx
}

// recordFromRow builds a Record from one data row. ok is false when the
// row lacks an id, province or district.
func recordFromRow(idx map[int]column, row []string) (domain.Record, bool) {
	var r domain.Record

	for i, c := range idx {
		if i < len(row) {
			c.set(&r, row[i])
		}
	}

	if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Province) == "" || strings.TrimSpace(r.District) == "" {
		return domain.Record{}, false
	}

	return r, true
}
