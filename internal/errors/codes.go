package errors

// Error code constants, format CATEGORY_SPECIFIC_DETAIL.
// Clients map these codes to their own messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Listings (LISTING_) ====================
	ListingNotFound          = "LISTING_NOT_FOUND"
	ListingNotApproved       = "LISTING_NOT_APPROVED"
	ListingInvalidTransition = "LISTING_INVALID_TRANSITION"
	ListingAlreadyInStatus   = "LISTING_ALREADY_IN_STATUS"
	ListingImageRequired     = "LISTING_IMAGE_REQUIRED"

	// ==================== Categories (CATEGORY_) ====================
	CategoryNotFound = "CATEGORY_NOT_FOUND"
	CategoryExists   = "CATEGORY_EXISTS"
	CategoryReserved = "CATEGORY_RESERVED"
	CategoryInUse    = "CATEGORY_IN_USE"

	// ==================== Reviews (REVIEW_) ====================
	ReviewInvalidRating = "REVIEW_INVALID_RATING"
	ReviewEmptyComment  = "REVIEW_EMPTY_COMMENT"

	// ==================== Messages / notifications ====================
	MessageNotFound      = "MESSAGE_NOT_FOUND"
	NotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== AI suggestion (SUGGEST_) ====================
	SuggestUnavailable = "SUGGEST_UNAVAILABLE"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
