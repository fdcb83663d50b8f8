package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CaseStatus is the lifecycle tag on a criminal case.
type CaseStatus string

// The seven case statuses. The arrows of the usual path are
// Reported -> Under Investigation -> Charge Sheet Filed -> In Trial ->
// Convicted/Acquitted -> Closed, but officers may move a case to any
// status at any time, including reopening a closed one.
const (
	StatusReported           CaseStatus = "Reported"
	StatusUnderInvestigation CaseStatus = "Under Investigation"
	StatusChargeSheetFiled   CaseStatus = "Charge Sheet Filed"
	StatusInTrial            CaseStatus = "In Trial"
	StatusConvicted          CaseStatus = "Convicted"
	StatusAcquitted          CaseStatus = "Acquitted"
	StatusClosed             CaseStatus = "Closed"
)

// CaseStatuses lists every valid status value.
var CaseStatuses = []CaseStatus{
	StatusReported,
	StatusUnderInvestigation,
	StatusChargeSheetFiled,
	StatusInTrial,
	StatusConvicted,
	StatusAcquitted,
	StatusClosed,
}

// Valid reports whether s is one of the seven defined statuses.
func (s CaseStatus) Valid() bool {
	for _, v := range CaseStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Person roles.
const (
	RoleComplainant = "Complainant"
	RoleVictim      = "Victim"
	RoleAccused     = "Accused"
	RoleWitness     = "Witness"
)

// Evidence kinds.
const (
	EvidenceImage    = "image"
	EvidenceDocument = "document"
	EvidenceAudio    = "audio"
	EvidenceVideo    = "video"
	EvidenceOther    = "other"
)

// Person is an individual attached to a case.
type Person struct {
	Role       string `json:"role" bson:"role"`
	Name       string `json:"name" bson:"name"`
	Address    string `json:"address" bson:"address"`
	Contact    string `json:"contact" bson:"contact"`
	NationalID string `json:"nationalId,omitempty" bson:"nationalId,omitempty"`
}

// Evidence is a file-like artifact attached to a case. StorageRef is an
// opaque locator issued by the storage collaborator. ExtractedText is nil
// until a text-extraction result has been written back; an empty string is
// a real (empty) result and is distinct from nil.
type Evidence struct {
	ID            string             `json:"id" bson:"id"`
	Name          string             `json:"name" bson:"name"`
	StorageRef    string             `json:"storageRef" bson:"storageRef"`
	Kind          string             `json:"kind" bson:"kind"`
	UploadedBy    string             `json:"uploadedBy" bson:"uploadedBy"`
	UploadedAt    primitive.DateTime `json:"uploadedAt" bson:"uploadedAt"`
	Description   string             `json:"description" bson:"description"`
	ExtractedText *string            `json:"extractedText,omitempty" bson:"extractedText,omitempty"`
}

// Note is one entry in the internal case log. Notes are append-only and are
// never edited or deleted once written.
type Note struct {
	Text      string             `json:"text" bson:"text"`
	Author    string             `json:"author" bson:"author"`
	Timestamp primitive.DateTime `json:"timestamp" bson:"timestamp"`
}

// Hearing is one logged court appearance.
type Hearing struct {
	Date            primitive.DateTime  `json:"date" bson:"date"`
	Summary         string              `json:"summary" bson:"summary"`
	NextHearingDate *primitive.DateTime `json:"nextHearingDate,omitempty" bson:"nextHearingDate,omitempty"`
}

// CourtDetails holds the judicial assignment for a case. The block is absent
// until the case enters judicial stages and is always replaced as a unit.
type CourtDetails struct {
	CourtName     string `json:"courtName,omitempty" bson:"courtName,omitempty"`
	CaseNumber    string `json:"caseNumber,omitempty" bson:"caseNumber,omitempty"`
	Judge         string `json:"judge,omitempty" bson:"judge,omitempty"`
	Prosecutor    string `json:"prosecutor,omitempty" bson:"prosecutor,omitempty"`
	DefenseLawyer string `json:"defenseLawyer,omitempty" bson:"defenseLawyer,omitempty"`
}

// Location is the incident location.
type Location struct {
	Address string   `json:"address" bson:"address"`
	Lat     *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty" bson:"lng,omitempty"`
}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the inner case aggregate. Hearings and Notes grow only
// by append; Tags keeps insertion order and tolerates duplicates from
// free-text input.
type CaseDetails struct {
	ReferenceNumber      string              `json:"referenceNumber" bson:"referenceNumber"`
	FiledAt              primitive.DateTime  `json:"filedAt" bson:"filedAt"`
	Category             string              `json:"category" bson:"category"`
	Status               CaseStatus          `json:"status" bson:"status"`
	Station              string              `json:"station" bson:"station"`
	InvestigatingOfficer string              `json:"investigatingOfficer" bson:"investigatingOfficer"`
	Complainant          Person              `json:"complainant" bson:"complainant"`
	InvolvedPersons      []Person            `json:"involvedPersons" bson:"involvedPersons"`
	Hearings             []Hearing           `json:"hearings" bson:"hearings"`
	NextHearingDate      *primitive.DateTime `json:"nextHearingDate,omitempty" bson:"nextHearingDate,omitempty"`
	CourtDetails         *CourtDetails       `json:"courtDetails,omitempty" bson:"courtDetails,omitempty"`
	Location             Location            `json:"location" bson:"location"`
	Tags                 []string            `json:"tags" bson:"tags"`
	Description          string              `json:"description" bson:"description"`
	Evidence             []Evidence          `json:"evidence" bson:"evidence"`
	Notes                []Note              `json:"notes" bson:"notes"`
}

// Clone returns a deep copy of the case so callers cannot alias the
// sub-entity slices held by a store.
func (c Case) Clone() Case {
	out := c
	out.Details.InvolvedPersons = append([]Person(nil), c.Details.InvolvedPersons...)
	out.Details.Hearings = append([]Hearing(nil), c.Details.Hearings...)
	out.Details.Tags = append([]string(nil), c.Details.Tags...)
	out.Details.Notes = append([]Note(nil), c.Details.Notes...)
	out.Details.Evidence = make([]Evidence, len(c.Details.Evidence))
	for i, ev := range c.Details.Evidence {
		out.Details.Evidence[i] = ev
		if ev.ExtractedText != nil {
			text := *ev.ExtractedText
			out.Details.Evidence[i].ExtractedText = &text
		}
	}
	if c.Details.NextHearingDate != nil {
		d := *c.Details.NextHearingDate
		out.Details.NextHearingDate = &d
	}
	if c.Details.CourtDetails != nil {
		cd := *c.Details.CourtDetails
		out.Details.CourtDetails = &cd
	}
	return out
}
