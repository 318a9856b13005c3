package appraisal

const (
	StatusActive   = "active"
	StatusArchived = "archived"

	DocumentKindIPCR = "ipcr"
	DocumentKindOPCR = "opcr"

	FunctionTypeCore      = "CORE FUNCTION"
	FunctionTypeSupport   = "SUPPORT FUNCTION"
	FunctionTypeStrategic = "STRATEGIC FUNCTION"

	SignoffReviewedBy    = "reviewed_by"
	SignoffApprovedBy    = "approved_by"
	SignoffDiscussedWith = "discussed_with"
	SignoffAssessedBy    = "assessed_by"
	SignoffFinalRatingBy = "final_rating_by"
	SignoffConfirmedBy   = "confirmed_by"
)

var FunctionTypes = []string{
	FunctionTypeCore,
	FunctionTypeSupport,
	FunctionTypeStrategic,
}

var SignoffFields = []string{
	SignoffReviewedBy,
	SignoffApprovedBy,
	SignoffDiscussedWith,
	SignoffAssessedBy,
	SignoffFinalRatingBy,
	SignoffConfirmedBy,
}
