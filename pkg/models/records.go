package models

// PermitRecord is a row of the permit registry.
// PNumber is the truncated permit key and never leaves the store layer.
type PermitRecord struct {
	ID         string  `json:"id" db:"id"`
	PNumber    string  `json:"p_number" db:"p_number" validate:"required"`
	Unit       *string `json:"unit,omitempty" db:"unit"`
	Building   *string `json:"building,omitempty" db:"building"`
	Size       *string `json:"size,omitempty" db:"size"` // square metres, free text
	Bedrooms   *string `json:"bedrooms,omitempty" db:"bedrooms"`
	OwnerName  *string `json:"owner_name,omitempty" db:"owner_name"`
	OwnerEmail *string `json:"owner_email,omitempty" db:"owner_email"`
	Mobile     *string `json:"mobile,omitempty" db:"mobile"`
	Landline   *string `json:"landline,omitempty" db:"landline"`
}

// CanonicalRecord is a row of the cleaned transaction registry searched by the mapper strategy
type CanonicalRecord struct {
	ID               string   `json:"id" db:"id"`
	UnitNumber       *string  `json:"unit_number,omitempty" db:"unit_number"`
	Project          *string  `json:"project,omitempty" db:"project"`
	BuildingName     *string  `json:"building_name,omitempty" db:"building_name"`
	MasterProject    *string  `json:"master_project,omitempty" db:"master_project"`
	AreaName         *string  `json:"area_name,omitempty" db:"area_name"`
	Size             *float64 `json:"size,omitempty" db:"size"`               // square metres
	ActualSize       *float64 `json:"actual_size,omitempty" db:"actual_size"` // square metres
	Owner            *string  `json:"owner,omitempty" db:"owner"`
	Phone            *string  `json:"phone,omitempty" db:"phone"`
	Phone1           *string  `json:"phone_1,omitempty" db:"phone_1"`
	Phone2           *string  `json:"phone_2,omitempty" db:"phone_2"`
	Email            *string  `json:"email,omitempty" db:"email"`
	RegistrationDate *string  `json:"registration_date,omitempty" db:"registration_date"`
	PropertyType     *string  `json:"property_type,omitempty" db:"property_type"`
	ProcedureType    *string  `json:"procedure_type,omitempty" db:"procedure_type"`
	ProcedureName    *string  `json:"procedure_name,omitempty" db:"procedure_name"`
}

// LegacyRecord is a row of the older, loosely structured property registry searched by the fuzzy strategy.
// Sizes are free text and may carry units or separators.
type LegacyRecord struct {
	ID             string  `json:"id" db:"id"`
	UnitNumber     *string `json:"unit_number,omitempty" db:"unit_number"`
	BuildingName   *string `json:"building_name,omitempty" db:"building_name"`
	BuildingName2  *string `json:"building_name_2,omitempty" db:"building_name_2"`
	BuildingNameEn *string `json:"building_name_en,omitempty" db:"building_name_en"`
	Project        *string `json:"project,omitempty" db:"project"`
	ProjectLnd     *string `json:"project_lnd,omitempty" db:"project_lnd"`
	MasterProject  *string `json:"master_project,omitempty" db:"master_project"`
	MasterLocation *string `json:"master_location,omitempty" db:"master_location"`
	Size           *string `json:"size,omitempty" db:"size"`
	ActualSize     *string `json:"actual_size,omitempty" db:"actual_size"`
	PropertyType   *string `json:"property_type,omitempty" db:"property_type"`
	OwnerName      *string `json:"owner_name,omitempty" db:"owner_name"`
	Mobile         *string `json:"mobile,omitempty" db:"mobile"`
	Phone          *string `json:"phone,omitempty" db:"phone"`
	Email          *string `json:"email,omitempty" db:"email"`
}

// NameFields returns the five fields fuzzy matching compares project names against
func (r LegacyRecord) NameFields() []string {
	return []string{
		Deref(r.Project),
		Deref(r.BuildingName),
		Deref(r.BuildingName2),
		Deref(r.ProjectLnd),
		Deref(r.BuildingNameEn),
	}
}

// Deref returns the pointed-to string or "" for nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FirstNonEmpty returns the first non-empty value, or ""
func FirstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
