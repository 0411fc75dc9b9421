// pkg/model/metadata.go
package model

// MissingValue is the canonical token for an unknown value
const MissingValue = "NA"

// Column names used by the pipeline
const (
	FieldID                     = "ID"
	FieldAge                    = "age"
	FieldSex                    = "sex"
	FieldCity                   = "city"
	FieldProvince               = "province"
	FieldCountry                = "country"
	FieldLatitude               = "latitude"
	FieldLongitude              = "longitude"
	FieldGeoResolution          = "geo_resolution"
	FieldDateOnsetSymptoms      = "date_onset_symptoms"
	FieldDateAdmissionHospital  = "date_admission_hospital"
	FieldDateConfirmation       = "date_confirmation"
	FieldSymptoms               = "symptoms"
	FieldLivesInWuhan           = "lives_in_Wuhan"
	FieldTravelHistoryDates     = "travel_history_dates"
	FieldTravelHistoryLocation  = "travel_history_location"
	FieldReportedMarketExposure = "reported_market_exposure"
	FieldAdditionalInformation  = "additional_information"
	FieldChronicDiseaseBinary   = "chronic_disease_binary"
	FieldChronicDisease         = "chronic_disease"
	FieldSource                 = "source"
	FieldSequenceAvailable      = "sequence_available"
	FieldOutcome                = "outcome"
	FieldDateDeathOrDischarge   = "date_death_or_discharge"
	FieldNotesForDiscussion     = "notes_for_discussion"
	FieldLocation               = "location"
	FieldAdmin3                 = "admin3"
	FieldAdmin2                 = "admin2"
	FieldAdmin1                 = "admin1"
	FieldCountryNew             = "country_new"
	FieldAdminID                = "admin_id"
	FieldDataModeratorInitials  = "data_moderator_initials"
	FieldTravelHistoryBinary    = "travel_history_binary"
	FieldAggregatedNumCases     = "aggregated_num_cases"
)

// CanonicalColumns is the published column order. Downstream consumers
// depend on it, do not reorder without a version bump.
var CanonicalColumns = []string{
	FieldID, FieldAge, FieldSex, FieldCity, FieldProvince, FieldCountry,
	FieldLatitude, FieldLongitude, FieldGeoResolution,
	FieldDateOnsetSymptoms, FieldDateAdmissionHospital, FieldDateConfirmation,
	FieldSymptoms, FieldLivesInWuhan, FieldTravelHistoryDates, FieldTravelHistoryLocation,
	FieldReportedMarketExposure, FieldAdditionalInformation,
	FieldChronicDiseaseBinary, FieldChronicDisease, FieldSource, FieldSequenceAvailable,
	FieldOutcome, FieldDateDeathOrDischarge, FieldNotesForDiscussion,
	FieldLocation, FieldAdmin3, FieldAdmin2, FieldAdmin1, FieldCountryNew, FieldAdminID,
	FieldDataModeratorInitials, FieldTravelHistoryBinary,
}

// GeoColumns are filled by the geocoder and need not be present in a source
var GeoColumns = []string{
	FieldLatitude, FieldLongitude, FieldGeoResolution,
	FieldLocation, FieldAdmin3, FieldAdmin2, FieldAdmin1, FieldCountryNew, FieldAdminID,
}

// RequiredColumns must appear in every source header
var RequiredColumns = []string{
	FieldAge, FieldSex, FieldCity, FieldProvince, FieldCountry,
	FieldDateOnsetSymptoms, FieldDateAdmissionHospital, FieldDateConfirmation,
	FieldSymptoms, FieldLivesInWuhan, FieldTravelHistoryDates, FieldTravelHistoryLocation,
	FieldReportedMarketExposure, FieldAdditionalInformation,
	FieldChronicDiseaseBinary, FieldChronicDisease, FieldSource, FieldSequenceAvailable,
	FieldOutcome, FieldDateDeathOrDischarge, FieldNotesForDiscussion,
	FieldDataModeratorInitials, FieldTravelHistoryBinary,
}

// Schema is the validated, ordered header of one source table
type Schema struct {
	Source  string   // Source name
	Columns []string // Column names in sheet order
	index   map[string]int
}

// NewSchema builds a schema over an already normalized header
func NewSchema(source string, columns []string) *Schema {
	s := &Schema{Source: source, Columns: columns, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		s.index[c] = i
	}
	return s
}

// Index returns the zero-based position of a column, or -1
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the column is present
func (s *Schema) Has(name string) bool {
	return s.Index(name) >= 0
}
