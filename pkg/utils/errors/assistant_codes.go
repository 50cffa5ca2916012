package errors

import "google.golang.org/grpc/codes"

// Common base errors (service 00).
var (
	// ErrInvalidParam indicates malformed or missing request parameters.
	ErrInvalidParam = Register(New(MakeCode(ServiceCommon, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid request parameters"))

	// ErrUnauthorized indicates a missing or invalid identity.
	ErrUnauthorized = Register(New(MakeCode(ServiceCommon, CategoryAuth, 1), 401, codes.Unauthenticated, "Authentication required"))

	// ErrForbidden indicates the caller is not allowed to perform the operation.
	ErrForbidden = Register(New(MakeCode(ServiceCommon, CategoryPermission, 1), 403, codes.PermissionDenied, "Permission denied"))

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = Register(New(MakeCode(ServiceCommon, CategoryResource, 1), 404, codes.NotFound, "Resource not found"))

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), 500, codes.Internal, "Internal server error"))

	// ErrDatabase indicates a relational store failure.
	ErrDatabase = Register(New(MakeCode(ServiceCommon, CategoryDatabase, 1), 500, codes.Internal, "Database error"))
)

// Course-assistant service errors (service 21).
var (
	// ErrEmptyMessage indicates a chat request with no message text.
	ErrEmptyMessage = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 1), 400, codes.InvalidArgument, "Message is required"))

	// ErrIndexRequest indicates an indexing request missing required fields.
	ErrIndexRequest = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 2), 400, codes.InvalidArgument, "fileId, fileName, fileUrl, and courseId are all required"))

	// ErrUploadNoFiles indicates an upload request carrying no files.
	ErrUploadNoFiles = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 3), 400, codes.InvalidArgument, "No files provided"))

	// ErrUploadFileType indicates an upload with an unsupported file type.
	ErrUploadFileType = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 4), 400, codes.InvalidArgument, "Unsupported file type"))

	// ErrUploadFileSize indicates an upload exceeding the per-file size limit.
	ErrUploadFileSize = Register(New(MakeCode(ServiceAssistant, CategoryRequest, 5), 400, codes.InvalidArgument, "File too large"))

	// ErrCourseNotOwned indicates the caller does not own the target course.
	// Ownership checks fail closed: "exists but not yours" is reported the
	// same as "not found".
	ErrCourseNotOwned = Register(New(MakeCode(ServiceAssistant, CategoryPermission, 1), 403, codes.PermissionDenied, "Not authorized for this course"))

	// ErrProfessorOnly indicates an operation restricted to professors.
	ErrProfessorOnly = Register(New(MakeCode(ServiceAssistant, CategoryPermission, 2), 403, codes.PermissionDenied, "Only professors can upload files"))

	// ErrIndexFailed indicates a document failed to index.
	ErrIndexFailed = Register(New(MakeCode(ServiceAssistant, CategoryInternal, 1), 500, codes.Internal, "Document indexing failed"))

	// ErrRetrievalFailed indicates the similarity search failed.
	ErrRetrievalFailed = Register(New(MakeCode(ServiceAssistant, CategoryInternal, 2), 500, codes.Internal, "Course material retrieval failed"))

	// ErrFileFetch indicates the file bytes could not be fetched from storage.
	ErrFileFetch = Register(New(MakeCode(ServiceAssistant, CategoryNetwork, 1), 502, codes.Unavailable, "Failed to fetch file from storage"))
)

// External gateway errors (service 90).
var (
	// ErrGatewayConfig indicates a missing gateway credential.
	ErrGatewayConfig = Register(New(MakeCode(ServiceThirdPartyGateway, CategoryConfig, 1), 500, codes.FailedPrecondition, "Completion gateway is not configured"))

	// ErrGatewayUpstream indicates the gateway returned a non-success status.
	ErrGatewayUpstream = Register(New(MakeCode(ServiceThirdPartyGateway, CategoryInternal, 1), 502, codes.Unavailable, "Completion gateway error"))

	// ErrGatewayNetwork indicates the gateway was unreachable.
	ErrGatewayNetwork = Register(New(MakeCode(ServiceThirdPartyGateway, CategoryNetwork, 1), 503, codes.Unavailable, "Cannot connect to completion gateway"))
)
