package records

// fieldKeys lists the accepted names of one Record field, in precedence order:
// canonical camelCase, the legacy dashboard camelCase, then the storage snake_case.
type fieldKeys struct {
	canonical string
	legacy    string
	snake     string
}

// Storage column names. Writers persist records with these keys.
const (
	ColumnID                 = "id"
	ColumnProvince           = "provinsi"
	ColumnDistrict           = "kabupaten"
	ColumnPattern            = "pola"
	ColumnYearAllocated      = "tahun_patan"
	ColumnYearHandedOver     = "tahun_serah"
	ColumnHouseholdCount     = "jumlah_kk"
	ColumnTitleDeedTarget    = "beban_tugas_shm"
	ColumnCaseCount          = "total_kasus"
	ColumnHPL                = "hpl"
	ColumnStatusBinaBlmHPL   = "status_bina_blm_hpl"
	ColumnStatusBinaSdhHPL   = "status_bina_sdh_hpl"
	ColumnStatusBinaTdkHPL   = "status_bina_tdk_hpl"
	ColumnStatusSerahSdhHPL  = "status_serah_sdh_hpl"
	ColumnStatusSerahSKSerah = "status_serah_sk_serah"
	ColumnProblemCommunity   = "permasalahan_oku_masy"
	ColumnProblemCompany     = "permasalahan_perusahaan"
	ColumnProblemForestArea  = "permasalahan_kws_hutan"
	ColumnProblemMHA         = "permasalahan_mha"
	ColumnProblemInstitution = "permasalahan_instansi"
	ColumnProblemOther       = "permasalahan_lain_lain"
	ColumnProblemDescription = "deskripsi_permasalahan"
	ColumnFollowUpAction     = "tindak_lanjut"
	ColumnRecommendation     = "rekomendasi"
	ColumnCreatedBy          = "created_by"
	ColumnUpdatedBy          = "updated_by"
	ColumnCreatedAt          = "created_at"
	ColumnUpdatedAt          = "updated_at"
)

var (
	keyID                 = fieldKeys{"id", "id", ColumnID}
	keyProvince           = fieldKeys{"province", "provinsi", ColumnProvince}
	keyDistrict           = fieldKeys{"district", "kabupaten", ColumnDistrict}
	keyPattern            = fieldKeys{"pattern", "pola", ColumnPattern}
	keyYearAllocated      = fieldKeys{"yearAllocated", "tahunPatan", ColumnYearAllocated}
	keyYearHandedOver     = fieldKeys{"yearHandedOver", "tahunSerah", ColumnYearHandedOver}
	keyHouseholdCount     = fieldKeys{"householdCount", "jmlKK", ColumnHouseholdCount}
	keyTitleDeedTarget    = fieldKeys{"titleDeedTarget", "bebanTugasSHM", ColumnTitleDeedTarget}
	keyCaseCount          = fieldKeys{"caseCount", "totalKasus", ColumnCaseCount}
	keyHPL                = fieldKeys{"hpl", "hpl", ColumnHPL}
	keyStatusBinaBlmHPL   = fieldKeys{"statusUnderManagement_NoTitle", "statusBinaBlmHPL", ColumnStatusBinaBlmHPL}
	keyStatusBinaSdhHPL   = fieldKeys{"statusUnderManagement_HasTitle", "statusBinaSdhHPL", ColumnStatusBinaSdhHPL}
	keyStatusBinaTdkHPL   = fieldKeys{"statusUnderManagement_NotApplicable", "statusBinaTdkHPL", ColumnStatusBinaTdkHPL}
	keyStatusSerahSdhHPL  = fieldKeys{"statusHandedOver_HasTitle", "statusSerahSdhHPL", ColumnStatusSerahSdhHPL}
	keyStatusSerahSKSerah = fieldKeys{"statusHandedOver_DecreeRef", "statusSerahSKSerah", ColumnStatusSerahSKSerah}
	keyProblemCommunity   = fieldKeys{"problemCommunity", "permasalahanOKUMasy", ColumnProblemCommunity}
	keyProblemCompany     = fieldKeys{"problemCompany", "permasalahanPerusahaan", ColumnProblemCompany}
	keyProblemForestArea  = fieldKeys{"problemForestArea", "permasalahanKwsHutan", ColumnProblemForestArea}
	keyProblemMHA         = fieldKeys{"problemMHA", "permasalahanMHA", ColumnProblemMHA}
	keyProblemInstitution = fieldKeys{"problemInstitution", "permasalahanInstansi", ColumnProblemInstitution}
	keyProblemOther       = fieldKeys{"problemOther", "permasalahanLainLain", ColumnProblemOther}
	keyProblemDescription = fieldKeys{"problemDescription", "deskripsiPermasalahan", ColumnProblemDescription}
	keyFollowUpAction     = fieldKeys{"followUpAction", "tindakLanjut", ColumnFollowUpAction}
	keyRecommendation     = fieldKeys{"recommendation", "rekomendasi", ColumnRecommendation}
	keyCreatedBy          = fieldKeys{"createdBy", "createdBy", ColumnCreatedBy}
	keyUpdatedBy          = fieldKeys{"updatedBy", "updatedBy", ColumnUpdatedBy}
	keyCreatedAt          = fieldKeys{"createdAt", "createdAt", ColumnCreatedAt}
	keyUpdatedAt          = fieldKeys{"updatedAt", "updatedAt", ColumnUpdatedAt}
)
